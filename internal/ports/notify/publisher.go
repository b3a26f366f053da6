package notify

import "context"

// Publisher publica eventos que terminan en correos al adoptante.
// El transporte concreto (bus, broker) y el envío SMTP viven afuera.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any, subject string) error
}

// TrackingAlert es el payload que consume la función de alertas.
// Los nombres JSON son contrato con ese consumidor.
type TrackingAlert struct {
	Asunto         string `json:"asunto"`
	Contenido      string `json:"contenido"`
	EmailAdoptante string `json:"emailAdoptante"`
}
