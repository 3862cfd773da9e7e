package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/waypointhq/waypoint-core/ai"
	"github.com/waypointhq/waypoint-core/ai/qwen"
	"github.com/waypointhq/waypoint-core/voice/speechtotext/iflytek"
)

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newTestClient(t *testing.T, opts ...Option) *testClient {
	t.Helper()
	server := httptest.NewServer(New(opts...).Handler())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &testClient{t: t, base: server.URL, client: &http.Client{Jar: jar}}
}

func (c *testClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("unexpected error: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("unexpected error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func (c *testClient) doJSON(method, path string, body any, wantStatus int, dst any) {
	c.t.Helper()
	resp := c.do(method, path, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: expected status %d, got %d", method, path, wantStatus, resp.StatusCode)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			c.t.Fatalf("failed to decode response: %v", err)
		}
	}
}

func (c *testClient) signup(username string) {
	c.t.Helper()
	c.doJSON("POST", "/api/auth/signup", map[string]string{
		"username": username,
		"password": "correct horse battery",
	}, http.StatusCreated, nil)
}

func TestHealthIsOpen(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.doJSON("GET", "/api/health", nil, http.StatusOK, nil)
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	// Protected routes reject anonymous requests.
	client.doJSON("GET", "/api/trips", nil, http.StatusUnauthorized, nil)

	client.signup("alice")
	client.doJSON("GET", "/api/trips", nil, http.StatusOK, nil)

	// Duplicate usernames are rejected.
	client.doJSON("POST", "/api/auth/signup", map[string]string{
		"username": "alice",
		"password": "correct horse battery",
	}, http.StatusConflict, nil)

	client.doJSON("POST", "/api/auth/logout", nil, http.StatusOK, nil)
	client.doJSON("GET", "/api/trips", nil, http.StatusUnauthorized, nil)

	client.doJSON("POST", "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong password!",
	}, http.StatusUnauthorized, nil)
	client.doJSON("POST", "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "correct horse battery",
	}, http.StatusOK, nil)
	client.doJSON("GET", "/api/trips", nil, http.StatusOK, nil)
}

func TestSignupRejectsShortPasswords(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.doJSON("POST", "/api/auth/signup", map[string]string{
		"username": "bob",
		"password": "short",
	}, http.StatusBadRequest, nil)
}

func TestVoiceTokenSignsEndpoint(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, WithRecognitionCredentials(iflytek.Credentials{
		AppID:     "app-id",
		APIKey:    "api-key",
		APISecret: "api-secret",
	}))
	client.signup("alice")

	var endpoint iflytek.SignedEndpoint
	client.doJSON("GET", "/api/voice/token", nil, http.StatusOK, &endpoint)

	if endpoint.AppID != "app-id" {
		t.Fatalf("unexpected app id: %q", endpoint.AppID)
	}
	parsed, err := url.Parse(endpoint.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Scheme != "wss" {
		t.Fatalf("expected a wss url, got %q", endpoint.URL)
	}
	query := parsed.Query()
	for _, param := range []string{"authorization", "date", "host"} {
		if query.Get(param) == "" {
			t.Fatalf("expected query parameter %q, got %q", param, endpoint.URL)
		}
	}
}

func TestVoiceTokenWithoutCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.signup("alice")
	client.doJSON("GET", "/api/voice/token", nil, http.StatusServiceUnavailable, nil)
}

func TestTripCRUDAndOwnership(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.signup("alice")

	var created map[string]any
	client.doJSON("POST", "/api/trips", map[string]any{
		"destination": "Shanghai",
		"startDate":   "2026-09-12",
		"days":        3,
		"budget":      5000,
	}, http.StatusCreated, &created)
	tripID, _ := created["id"].(string)
	if tripID == "" {
		t.Fatalf("expected a trip id, got %v", created)
	}

	client.doJSON("POST", "/api/trips", map[string]any{
		"destination": "Osaka",
		"startDate":   "not a date",
	}, http.StatusBadRequest, nil)

	var listed []map[string]any
	client.doJSON("GET", "/api/trips", nil, http.StatusOK, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(listed))
	}

	client.doJSON("PUT", "/api/trips/"+tripID, map[string]any{
		"destination": "Shanghai",
		"days":        5,
		"budget":      6000,
	}, http.StatusOK, nil)

	var fetched map[string]any
	client.doJSON("GET", "/api/trips/"+tripID, nil, http.StatusOK, &fetched)
	if fetched["days"].(float64) != 5 {
		t.Fatalf("expected the update persisted, got %v", fetched["days"])
	}

	resp := client.do("DELETE", "/api/trips/"+tripID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.StatusCode)
	}
	client.doJSON("GET", "/api/trips/"+tripID, nil, http.StatusNotFound, nil)
}

func TestExpensesAndStats(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	client.signup("alice")

	var trip map[string]any
	client.doJSON("POST", "/api/trips", map[string]any{
		"destination": "Lisbon",
		"days":        4,
		"budget":      1000,
	}, http.StatusCreated, &trip)
	tripID := trip["id"].(string)

	var expense map[string]any
	client.doJSON("POST", fmt.Sprintf("/api/trips/%s/expenses", tripID), map[string]any{
		"amount":      120.5,
		"category":    "food",
		"description": "seafood dinner",
	}, http.StatusCreated, &expense)
	client.doJSON("POST", fmt.Sprintf("/api/trips/%s/expenses", tripID), map[string]any{
		"amount":   -5,
		"category": "food",
	}, http.StatusBadRequest, nil)
	client.doJSON("POST", fmt.Sprintf("/api/trips/%s/expenses", tripID), map[string]any{
		"amount":   30,
		"category": "tram rides",
	}, http.StatusCreated, nil)

	var stats struct {
		Total      float64            `json:"total"`
		Remaining  float64            `json:"remaining"`
		ByCategory map[string]float64 `json:"byCategory"`
		Count      int                `json:"count"`
	}
	client.doJSON("GET", fmt.Sprintf("/api/trips/%s/expenses/stats", tripID), nil, http.StatusOK, &stats)
	if stats.Total != 150.5 || stats.Remaining != 849.5 || stats.Count != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByCategory["other"] != 30 {
		t.Fatalf("expected the unknown category folded into other, got %v", stats.ByCategory)
	}

	expenseID := expense["id"].(string)
	resp := client.do("DELETE", "/api/expenses/"+expenseID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.StatusCode)
	}

	var remaining []map[string]any
	client.doJSON("GET", fmt.Sprintf("/api/trips/%s/expenses", tripID), nil, http.StatusOK, &remaining)
	if len(remaining) != 1 {
		t.Fatalf("expected 1 expense left, got %d", len(remaining))
	}
}

func modelStub(t *testing.T, content string) *ai.Planner {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return ai.NewPlanner(qwen.NewClient(qwen.WithAPIKey("test"), qwen.WithBaseURL(server.URL)))
}

func TestParseTripEndpoint(t *testing.T) {
	t.Parallel()

	planner := modelStub(t, `{"destination":"Shanghai","days":3,"confidence":0.9,"missing":["budget"]}`)
	client := newTestClient(t, WithPlanner(planner))
	client.signup("alice")

	var draft struct {
		Destination *string  `json:"destination"`
		Days        *int     `json:"days"`
		Missing     []string `json:"missing"`
	}
	client.doJSON("POST", "/api/parse-trip", map[string]string{
		"text": "three days in shanghai",
	}, http.StatusOK, &draft)
	if draft.Destination == nil || *draft.Destination != "Shanghai" {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	client.doJSON("POST", "/api/parse-trip", map[string]string{"text": ""}, http.StatusBadRequest, nil)
}

func TestParseExpenseEndpoint(t *testing.T) {
	t.Parallel()

	planner := modelStub(t, `{"amount":45,"category":"food","description":"lunch","confidence":0.95}`)
	client := newTestClient(t, WithPlanner(planner))
	client.signup("alice")

	var draft struct {
		Amount   *float64 `json:"amount"`
		Category string   `json:"category"`
	}
	client.doJSON("POST", "/api/parse-expense", map[string]string{
		"text": "spent forty five on lunch",
	}, http.StatusOK, &draft)
	if draft.Amount == nil || *draft.Amount != 45 || draft.Category != "food" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

func TestGenerateItineraryEndpoint(t *testing.T) {
	t.Parallel()

	planner := modelStub(t, `{"days":[{"day":1,"title":"Arrival","activities":["check in"],"estimatedCost":200}],"tips":["pack light"]}`)
	client := newTestClient(t, WithPlanner(planner))
	client.signup("alice")

	var trip map[string]any
	client.doJSON("POST", "/api/trips", map[string]any{
		"destination": "Shanghai",
		"days":        1,
		"budget":      2000,
	}, http.StatusCreated, &trip)
	tripID := trip["id"].(string)

	var generated struct {
		Itinerary []struct {
			Day   int    `json:"day"`
			Title string `json:"title"`
		} `json:"itinerary"`
		Tips []string `json:"tips"`
	}
	client.doJSON("POST", fmt.Sprintf("/api/trips/%s/generate", tripID), nil, http.StatusOK, &generated)
	if len(generated.Itinerary) != 1 || generated.Itinerary[0].Title != "Arrival" {
		t.Fatalf("unexpected itinerary: %+v", generated)
	}
	if len(generated.Tips) != 1 {
		t.Fatalf("unexpected tips: %v", generated.Tips)
	}

	// The itinerary is persisted on the trip.
	var fetched struct {
		Itinerary []struct {
			Day int `json:"day"`
		} `json:"itinerary"`
	}
	client.doJSON("GET", "/api/trips/"+tripID, nil, http.StatusOK, &fetched)
	if len(fetched.Itinerary) != 1 {
		t.Fatalf("expected the itinerary persisted, got %+v", fetched)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	t.Parallel()

	alice := newTestClient(t)
	alice.signup("alice")
	var trip map[string]any
	alice.doJSON("POST", "/api/trips", map[string]any{
		"destination": "Kyoto",
		"days":        2,
	}, http.StatusCreated, &trip)
	tripID := trip["id"].(string)

	// Separate server instances do not share state, so bob gets his own
	// account on the same server via a fresh cookie jar.
	jar, _ := cookiejar.New(nil)
	bob := &testClient{t: t, base: alice.base, client: &http.Client{Jar: jar}}
	bob.signup("bob")

	bob.doJSON("GET", "/api/trips/"+tripID, nil, http.StatusNotFound, nil)
	resp := bob.do("DELETE", "/api/trips/"+tripID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for another user's trip, got %d", resp.StatusCode)
	}

	alice.doJSON("GET", "/api/trips/"+tripID, nil, http.StatusOK, nil)
}
