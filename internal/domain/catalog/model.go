package catalog

// Entry es un registro de tabla de referencia (estados, tipos).
// Data estática: se carga del storage y se cachea sin expiración.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
