package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	mem "adoption-manager/internal/adapters/storage/memory"
	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/users"
	"adoption-manager/internal/router"
)

func TestHTTP_EndToEnd_AdoptionLifecycle(t *testing.T) {
	store := mem.NewStore()
	store.PutAnimal(animals.Animal{ID: "animal-1", Name: "Luna", OrganizationID: "org-1", Published: true})
	store.PutUser(users.User{ID: "adopter-1", Email: "ana@example.com", FirstName: "Ana", LastName: "Gómez", Active: true})
	store.AddAffiliation("org-1", "staff-1")

	ts := httptest.NewServer(router.NewRouter(router.Options{Store: store}))
	defer ts.Close()

	adopterID := "adopter-1"

	// 1) Sin identidad no hay acceso
	{
		st, _ := doReq(t, ts.URL, "GET", "/adopciones", "", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}

	// 2) Adoptante registra su solicitud
	var adoptionID string
	{
		st, body := doReq(t, ts.URL, "POST", "/adopciones/solicitar", adopterID, "", map[string]any{
			"animal_id":          "animal-1",
			"family_description": "familia con patio y sin otras mascotas",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 submit, got %d body=%s", st, string(body))
		}
		var out struct {
			ID    string `json:"id"`
			State string `json:"state"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode submit response: %v", err)
		}
		if out.State != "pending" {
			t.Fatalf("expected pending, got %s", out.State)
		}
		adoptionID = out.ID
	}

	// 3) El adoptante ve su solicitud, pero no puede aprobarla
	{
		st, _ := doReq(t, ts.URL, "GET", "/adopciones/"+adoptionID, adopterID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get own adoption, got %d", st)
		}

		st, _ = doReq(t, ts.URL, "POST", "/adopciones/"+adoptionID+"/aprobar", adopterID, "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve as owner, got %d", st)
		}
	}

	// 4) Otro adoptante no la ve (404, no 403)
	{
		st, _ := doReq(t, ts.URL, "GET", "/adopciones/"+adoptionID, "stranger-1", "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for foreign adoption, got %d", st)
		}
	}

	// 5) Staff de otra organización tampoco (404)
	{
		st, _ := doReq(t, ts.URL, "POST", "/adopciones/"+adoptionID+"/aprobar", "other-staff", "admin", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 approve outside org, got %d", st)
		}
	}

	// 6) Staff de la organización aprueba
	{
		st, body := doReq(t, ts.URL, "POST", "/adopciones/"+adoptionID+"/aprobar", "staff-1", "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var out struct {
			State  string `json:"state"`
			Animal struct {
				Published bool `json:"published"`
			} `json:"animal"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode approve response: %v", err)
		}
		if out.State != "approved" {
			t.Fatalf("expected approved, got %s", out.State)
		}
		if out.Animal.Published {
			t.Fatal("expected animal unpublished after approval")
		}
	}

	// 7) Aprobar dos veces falla con el mensaje de contrato
	{
		st, body := doReq(t, ts.URL, "POST", "/adopciones/"+adoptionID+"/aprobar", "staff-1", "admin", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 double approve, got %d", st)
		}
		var out struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		want := "No se posible aprobar esta solicitud. La solicitud no se encuentra en estado pendiente."
		if out.Error != want {
			t.Fatalf("unexpected error message %q", out.Error)
		}
	}

	// 8) La aprobación dejó agendado el seguimiento inicial
	var followUpID string
	{
		st, body := doReq(t, ts.URL, "GET", "/seguimientos?adoption_id="+adoptionID, "staff-1", "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list follow-ups, got %d body=%s", st, string(body))
		}
		var out []struct {
			ID          string `json:"id"`
			Kind        string `json:"kind"`
			State       string `json:"state"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode follow-ups: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 follow-up, got %d", len(out))
		}
		if out[0].Kind != "home_visit" || out[0].State != "active" {
			t.Fatalf("unexpected follow-up %+v", out[0])
		}
		if out[0].Description != "Seguimiento inicial" {
			t.Fatalf("unexpected description %q", out[0].Description)
		}
		followUpID = out[0].ID
	}

	// 9) El adoptante ve el seguimiento, pero no lo cierra
	{
		st, _ := doReq(t, ts.URL, "GET", "/seguimientos/"+followUpID, adopterID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get follow-up as adopter, got %d", st)
		}

		st, _ = doReq(t, ts.URL, "POST", "/seguimientos/"+followUpID+"/cerrar", adopterID, "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 close as owner, got %d", st)
		}
	}

	// 10) Staff cierra el seguimiento; cerrarlo de nuevo falla
	{
		st, body := doReq(t, ts.URL, "POST", "/seguimientos/"+followUpID+"/cerrar", "staff-1", "admin", map[string]any{
			"closing_note": "visita realizada, todo en orden",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 close, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "POST", "/seguimientos/"+followUpID+"/cerrar", "staff-1", "admin", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 double close, got %d body=%s", st, string(body))
		}
	}

	// 11) Superadmin ve todo
	{
		st, body := doReq(t, ts.URL, "GET", "/adopciones", "root-1", "superadmin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list as superadmin, got %d", st)
		}
		var out []json.RawMessage
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 adoption, got %d", len(out))
		}
	}
}

func TestHTTP_Catalogs(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{Store: mem.NewStore()}))
	defer ts.Close()

	cases := []struct {
		path string
		want int
	}{
		{"/adopciones/estados", 3},
		{"/seguimientos/tipos", 3},
		{"/seguimientos/estados", 2},
	}

	for _, tc := range cases {
		st, body := doReq(t, ts.URL, "GET", tc.path, "", "", nil)
		if st != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, st)
		}
		var out []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if len(out) != tc.want {
			t.Fatalf("%s: expected %d entries, got %d", tc.path, tc.want, len(out))
		}
		for _, e := range out {
			if e.Code == "" || e.Name == "" {
				t.Fatalf("%s: empty entry %+v", tc.path, e)
			}
		}
	}
}

func doReq(t *testing.T, baseURL, method, path, userID, roles string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}
	if roles != "" {
		req.Header.Set("X-Debug-User-Roles", roles)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}
