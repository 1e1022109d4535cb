package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wildquest-ai/wildquest/internal/auth"
	"github.com/wildquest-ai/wildquest/internal/chat"
	"github.com/wildquest-ai/wildquest/internal/gbif"
	"github.com/wildquest-ai/wildquest/internal/provider"
	"github.com/wildquest-ai/wildquest/internal/session"
	"github.com/wildquest-ai/wildquest/internal/user"
)

type staticProvider struct{}

func (staticProvider) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	return "model answer", nil
}
func (staticProvider) Name() string         { return "static" }
func (staticProvider) DefaultModel() string { return "static-model" }

type staticSpecies struct{}

func (staticSpecies) Search(ctx context.Context, lat, lon, radiusKm float64) ([]gbif.Occurrence, error) {
	return []gbif.Occurrence{{Kingdom: "Animalia", Species: "Vulpes vulpes"}}, nil
}

type staticActivities struct{}

func (staticActivities) Search(ctx context.Context, lat, lon float64) ([]session.Activity, error) {
	return []session.Activity{{Name: "Grand Canyon Hike", GeoCode: session.GeoCode{Latitude: 36.1, Longitude: -112.1}}}, nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	users := user.NewMemoryStore()
	issuer := auth.NewIssuer("test-secret", 30*time.Minute)
	svc := chat.NewService(session.NewMemoryStore(), staticProvider{}, staticSpecies{}, staticActivities{}, nil, chat.Config{})
	return NewServer(users, issuer, svc, nil).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return body
}

// signUpAndLogin registers a user and returns a valid access token.
func signUpAndLogin(t *testing.T, handler http.Handler, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "hunter2"}
	if rec := postJSON(t, handler, "/sign_up", creds); rec.Code != http.StatusOK {
		t.Fatalf("sign_up: status %d body %s", rec.Code, rec.Body.String())
	}
	rec := postJSON(t, handler, "/login", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", body)
	}
	return token
}

func TestSignUpDuplicate(t *testing.T) {
	handler := newTestHandler(t)
	creds := map[string]string{"username": "alice", "password": "pw"}

	if rec := postJSON(t, handler, "/sign_up", creds); rec.Code != http.StatusOK {
		t.Fatalf("first sign_up: status %d", rec.Code)
	}
	if rec := postJSON(t, handler, "/sign_up", creds); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate sign_up: expected 400, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler := newTestHandler(t)
	postJSON(t, handler, "/sign_up", map[string]string{"username": "alice", "password": "right"})

	rec := postJSON(t, handler, "/login", map[string]string{"username": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	rec = postJSON(t, handler, "/login", map[string]string{"username": "nobody", "password": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: expected 401, got %d", rec.Code)
	}
}

func TestQueryAIRequiresValidToken(t *testing.T) {
	handler := newTestHandler(t)

	rec := postJSON(t, handler, "/query_ai", map[string]string{"query": "hi", "token": "garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestQueryAIRoundTrip(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpAndLogin(t, handler, "alice")

	rec := postJSON(t, handler, "/query_ai", map[string]string{"query": "what lives here?", "token": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["response"] != "model answer" {
		t.Errorf("unexpected response: %v", body)
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("expected session_id in response")
	}

	// Continue the same session.
	rec = postJSON(t, handler, "/query_ai", map[string]string{
		"query": "more please", "token": token, "session_id": sessionID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := decodeBody(t, rec)["session_id"]; got != sessionID {
		t.Errorf("expected session_id %q preserved, got %v", sessionID, got)
	}
}

func TestQueryLocationConflict(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpAndLogin(t, handler, "alice")

	first := postJSON(t, handler, "/query_location", map[string]any{
		"latitude": 36.1, "longitude": -112.1, "token": token,
	})
	if first.Code != http.StatusOK {
		t.Fatalf("status %d body %s", first.Code, first.Body.String())
	}
	sessionID := decodeBody(t, first)["session_id"].(string)

	second := postJSON(t, handler, "/query_location", map[string]any{
		"latitude": 36.1, "longitude": -112.1, "token": token, "session_id": sessionID,
	})
	if second.Code != http.StatusConflict {
		t.Errorf("repeat location query: expected 409, got %d", second.Code)
	}
}

func TestQueryPlaceFlow(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpAndLogin(t, handler, "alice")

	loc := postJSON(t, handler, "/query_location", map[string]any{
		"latitude": 36.1, "longitude": -112.1, "token": token,
	})
	sessionID := decodeBody(t, loc)["session_id"].(string)

	hit := postJSON(t, handler, "/query_place", map[string]any{
		"place_name": "grand canion hike", "token": token, "session_id": sessionID,
	})
	if hit.Code != http.StatusOK {
		t.Fatalf("status %d body %s", hit.Code, hit.Body.String())
	}
	if decodeBody(t, hit)["response"] != "model answer" {
		t.Errorf("expected model answer for fuzzy hit, got %s", hit.Body.String())
	}

	miss := postJSON(t, handler, "/query_place", map[string]any{
		"place_name": "xyz completely unrelated", "token": token, "session_id": sessionID,
	})
	if miss.Code != http.StatusOK {
		t.Fatalf("miss must not be an error, got %d", miss.Code)
	}
	if decodeBody(t, miss)["response"] != placeNotFoundMessage {
		t.Errorf("expected not-found payload, got %s", miss.Body.String())
	}
}

func TestQueryPlaceWithoutSummary(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpAndLogin(t, handler, "alice")

	plain := postJSON(t, handler, "/query_ai", map[string]string{"query": "hi", "token": token})
	sessionID := decodeBody(t, plain)["session_id"].(string)

	rec := postJSON(t, handler, "/query_place", map[string]any{
		"place_name": "anywhere", "token": token, "session_id": sessionID,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a cached summary, got %d", rec.Code)
	}
}

func TestSessionHistoryOwnership(t *testing.T) {
	handler := newTestHandler(t)
	aliceToken := signUpAndLogin(t, handler, "alice")
	bobToken := signUpAndLogin(t, handler, "bob")

	rec := postJSON(t, handler, "/query_ai", map[string]string{"query": "hi", "token": aliceToken})
	sessionID := decodeBody(t, rec)["session_id"].(string)

	own := getPath(t, handler, "/session-history/"+sessionID+"?token="+aliceToken)
	if own.Code != http.StatusOK {
		t.Fatalf("owner read: status %d", own.Code)
	}
	body := decodeBody(t, own)
	if body["session_id"] != sessionID {
		t.Errorf("unexpected body: %v", body)
	}

	other := getPath(t, handler, "/session-history/"+sessionID+"?token="+bobToken)
	if other.Code != http.StatusForbidden {
		t.Errorf("non-owner read: expected 403, got %d", other.Code)
	}

	missing := getPath(t, handler, "/session-history/nope?token="+aliceToken)
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing session: expected 404, got %d", missing.Code)
	}
}

func TestSessionListScopedToOwner(t *testing.T) {
	handler := newTestHandler(t)
	aliceToken := signUpAndLogin(t, handler, "alice")
	bobToken := signUpAndLogin(t, handler, "bob")

	postJSON(t, handler, "/query_ai", map[string]string{"query": "one", "token": aliceToken})
	postJSON(t, handler, "/query_ai", map[string]string{"query": "two", "token": aliceToken})
	postJSON(t, handler, "/query_ai", map[string]string{"query": "three", "token": bobToken})

	rec := getPath(t, handler, "/session-history/?token="+aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	sessions, _ := decodeBody(t, rec)["sessions"].([]any)
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions for alice, got %d", len(sessions))
	}
}

func TestGetAllPlaces(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpAndLogin(t, handler, "alice")

	loc := postJSON(t, handler, "/query_location", map[string]any{
		"latitude": 36.1, "longitude": -112.1, "token": token,
	})
	sessionID := decodeBody(t, loc)["session_id"].(string)

	rec := getPath(t, handler, "/get_all_places/"+sessionID+"?token="+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	places, _ := body["places"].([]any)
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %v", body)
	}
	place := places[0].(map[string]any)
	if place["name"] != "Grand Canyon Hike" {
		t.Errorf("unexpected place: %v", place)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t)
	rec := getPath(t, handler, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
