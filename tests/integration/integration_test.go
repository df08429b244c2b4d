package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/handler"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/infra/resilience"
	"github.com/fieldline/crm-bff-go/internal/infra/supabase"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

// mockBackend is a minimal in-memory PostgREST stand-in. It answers the
// table and RPC paths the flows below touch and keeps inserted rows so
// later reads see them.
type mockBackend struct {
	mu       sync.Mutex
	profiles []map[string]any
	people   []map[string]any
}

func (m *mockBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		w.Header().Set("Content-Type", "application/json")

		m.mu.Lock()
		defer m.mu.Unlock()

		switch {
		case resource == "profiles" && r.Method == http.MethodGet:
			m.writeFiltered(w, r, m.profiles)

		case resource == "profiles" && r.Method == http.MethodPost:
			row := decodeRow(r)
			// The backend assigns the default organization on signup.
			row["current_organization_id"] = "org-1"
			m.profiles = append(m.profiles, row)
			json.NewEncoder(w).Encode([]map[string]any{row})

		case resource == "people" && r.Method == http.MethodGet:
			m.writeFiltered(w, r, m.people)

		case resource == "people" && r.Method == http.MethodPost:
			row := decodeRow(r)
			m.people = append(m.people, row)
			json.NewEncoder(w).Encode([]map[string]any{row})

		case resource == "organization_members" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{{
				"role": "owner",
				"organization": map[string]any{
					"id":   "org-1",
					"name": "Acme Corp",
					"slug": "acme-corp",
				},
			}})

		case r.Method == http.MethodPost:
			// credential and refresh-token inserts
			json.NewEncoder(w).Encode([]map[string]any{decodeRow(r)})

		case r.Method == http.MethodPatch, r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)

		default:
			w.Write([]byte("[]"))
		}
	}
}

// writeFiltered applies the eq. filters PostgREST would.
func (m *mockBackend) writeFiltered(w http.ResponseWriter, r *http.Request, rows []map[string]any) {
	var out []map[string]any
	for _, row := range rows {
		if matchesQuery(r, row) {
			out = append(out, row)
		}
	}
	if out == nil {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(out)
}

func matchesQuery(r *http.Request, row map[string]any) bool {
	for key, values := range r.URL.Query() {
		if key == "order" || key == "limit" || key == "select" || key == "or" {
			continue
		}
		want, ok := strings.CutPrefix(values[0], "eq.")
		if !ok {
			continue
		}
		got, present := row[key]
		if !present {
			continue
		}
		switch v := got.(type) {
		case string:
			if v != want {
				return false
			}
		case bool:
			if (v && want != "true") || (!v && want != "false") {
				return false
			}
		}
	}
	return true
}

func decodeRow(r *http.Request) map[string]any {
	row := map[string]any{}
	json.NewDecoder(r.Body).Decode(&row)
	return row
}

func newTestStack(t *testing.T, backend *mockBackend) (http.Handler, func()) {
	t.Helper()
	server := httptest.NewServer(backend.handler())

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	appCache := cache.New[any](5 * time.Minute)
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, server.URL, "anon", "service", cb, cfg, logger)

	authSvc := service.NewAuthService(store, store, appCache, metrics, logger,
		"integration-secret", 15*time.Minute, 7*24*time.Hour, 5*time.Second)

	router := handler.NewRouter(handler.Services{
		Auth:         authSvc,
		Orgs:         service.NewOrganizationsService(store, appCache, metrics, logger, 14*24*time.Hour),
		People:       service.NewPeopleService(store, appCache, metrics, logger),
		Deals:        service.NewDealsService(store, appCache, metrics, logger),
		Campaigns:    service.NewCampaignsService(store, store, appCache, metrics, logger),
		Interactions: service.NewInteractionsService(store, appCache, metrics, logger),
		Library:      service.NewLibraryService(store, appCache, metrics, logger),
		Dashboard:    service.NewDashboardService(store, appCache, metrics, logger),
		QuickAdd:     service.NewQuickAddService(appCache, logger),
	}, metrics, logger, []string{"*"})

	return router, server.Close
}

// TestIntegration_RegisterAndManagePeople walks the happy path: sign up,
// create a contact with the issued token, read it back, export the CSV.
func TestIntegration_RegisterAndManagePeople(t *testing.T) {
	backend := &mockBackend{}
	router, cleanup := newTestStack(t, backend)
	defer cleanup()

	// --- Register ---
	body, _ := json.Marshal(map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var session domain.Session
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if session.OrganizationID != "org-1" {
		t.Fatalf("expected the backend-assigned org, got %q", session.OrganizationID)
	}
	if len(session.Organizations) != 1 || session.Organizations[0].Name != "Acme Corp" {
		t.Fatalf("unexpected organizations: %+v", session.Organizations)
	}

	auth := "Bearer " + session.AccessToken

	// --- Create a person ---
	body, _ = json.Marshal(map[string]string{
		"name":  "Grace Hopper",
		"email": "grace@example.com",
	})
	req = httptest.NewRequest(http.MethodPost, "/v1/people", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create person: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var person domain.Person
	if err := json.NewDecoder(rec.Body).Decode(&person); err != nil {
		t.Fatalf("decode person: %v", err)
	}
	if person.OrganizationID != "org-1" {
		t.Errorf("person must be scoped to the active org, got %q", person.OrganizationID)
	}
	if person.Lifecycle != "new" {
		t.Errorf("expected the new lifecycle default, got %q", person.Lifecycle)
	}

	// --- List people ---
	req = httptest.NewRequest(http.MethodGet, "/v1/people", nil)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list people: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var listResp struct {
		People []domain.Person `json:"people"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.People) != 1 || listResp.People[0].Name != "Grace Hopper" {
		t.Fatalf("unexpected people list: %+v", listResp.People)
	}

	// --- Export CSV ---
	req = httptest.NewRequest(http.MethodGet, "/v1/people/export", nil)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	csvBody := rec.Body.Bytes()
	if !bytes.HasPrefix(csvBody, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("expected a UTF-8 BOM")
	}
	if !bytes.Contains(csvBody, []byte("Grace Hopper")) {
		t.Error("expected the contact in the export")
	}
}

// TestIntegration_MissingPersonMapsTo404 exercises the error mapping
// from an empty PostgREST result down to the HTTP status.
func TestIntegration_MissingPersonMapsTo404(t *testing.T) {
	backend := &mockBackend{}
	router, cleanup := newTestStack(t, backend)
	defer cleanup()

	body, _ := json.Marshal(map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	var session domain.Session
	json.NewDecoder(rec.Body).Decode(&session)

	req = httptest.NewRequest(http.MethodGet, "/v1/people/00000000-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d. Body: %s", rec.Code, rec.Body.String())
	}
}

// TestIntegration_SessionBootstrap resolves the freshly issued token
// back into a session, the way the SPA does on load.
func TestIntegration_SessionBootstrap(t *testing.T) {
	backend := &mockBackend{}
	router, cleanup := newTestStack(t, backend)
	defer cleanup()

	body, _ := json.Marshal(map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "s3cret-pass",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	var session domain.Session
	json.NewDecoder(rec.Body).Decode(&session)

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("bootstrap: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Authenticated bool            `json:"authenticated"`
		Session       *domain.Session `json:"session"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	if !resp.Authenticated || resp.Session == nil {
		t.Fatal("expected an authenticated resolution")
	}
	if resp.Session.User.Email != "ada@example.com" {
		t.Errorf("unexpected user: %q", resp.Session.User.Email)
	}

	// No token resolves unauthenticated, not an error.
	req = httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous bootstrap: expected 200, got %d", rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Authenticated {
		t.Error("expected an unauthenticated resolution without a token")
	}
}
