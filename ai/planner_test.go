package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waypointhq/waypoint-core/ai/qwen"
	"github.com/waypointhq/waypoint-core/trips"
)

func modelServer(t *testing.T, content string) *httptest.Server {
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
	return server
}

func testPlanner(t *testing.T, content string) *Planner {
	server := modelServer(t, content)
	return NewPlanner(qwen.NewClient(qwen.WithAPIKey("test"), qwen.WithBaseURL(server.URL)))
}

func TestParseExpense(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, `{"amount":45.5,"category":"food","description":"lunch near the bund","confidence":0.93}`)
	draft, err := planner.ParseExpense(context.Background(), "spent forty five and a half on lunch near the bund")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Amount == nil || *draft.Amount != 45.5 {
		t.Fatalf("unexpected amount: %v", draft.Amount)
	}
	if draft.Category != "food" || draft.Confidence != 0.93 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

func TestParseExpenseNormalizesUnknownCategories(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, `{"category":"souvenirs","description":"fridge magnets","confidence":0.6,"missing":["amount"]}`)
	draft, err := planner.ParseExpense(context.Background(), "bought some fridge magnets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Category != string(trips.CategoryOther) {
		t.Fatalf("expected an unknown category folded into other, got %q", draft.Category)
	}
	if draft.Amount != nil {
		t.Fatalf("expected no amount, got %v", *draft.Amount)
	}
	if len(draft.Missing) != 1 || draft.Missing[0] != "amount" {
		t.Fatalf("unexpected missing fields: %v", draft.Missing)
	}
}

func TestParseTrip(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, `{"destination":"Shanghai","days":3,"budget":5000,"preferences":["food","museums"],"confidence":0.88,"missing":["startDate"]}`)
	draft, err := planner.ParseTrip(context.Background(), "three days in shanghai, five thousand budget, food and museums")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Destination == nil || *draft.Destination != "Shanghai" {
		t.Fatalf("unexpected destination: %v", draft.Destination)
	}
	if draft.Days == nil || *draft.Days != 3 {
		t.Fatalf("unexpected days: %v", draft.Days)
	}
	if draft.StartDate != nil {
		t.Fatalf("expected no start date, got %v", *draft.StartDate)
	}
	if len(draft.Missing) != 1 || draft.Missing[0] != "startDate" {
		t.Fatalf("unexpected missing fields: %v", draft.Missing)
	}
}

func TestGenerateItinerary(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, `{"days":[{"day":1,"title":"Old town","activities":["walk the bund","xiaolongbao"],"estimatedCost":300},{"day":2,"title":"Museums","activities":["shanghai museum"],"estimatedCost":150}],"tips":["get a transit card"]}`)
	days, tips, err := planner.GenerateItinerary(context.Background(), trips.Trip{
		Destination: "Shanghai",
		Days:        2,
		Budget:      5000,
		Preferences: []string{"food"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Day != 1 || days[0].Title != "Old town" || days[0].EstimatedCost != 300 {
		t.Fatalf("unexpected first day: %+v", days[0])
	}
	if len(days[0].Activities) != 2 {
		t.Fatalf("unexpected activities: %v", days[0].Activities)
	}
	if len(tips) != 1 || tips[0] != "get a transit card" {
		t.Fatalf("unexpected tips: %v", tips)
	}
}

func TestPlannerSurfacesModelErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	planner := NewPlanner(qwen.NewClient(qwen.WithAPIKey("test"), qwen.WithBaseURL(server.URL)))

	if _, err := planner.ParseExpense(context.Background(), "anything"); err == nil {
		t.Fatalf("expected an error")
	}
	if _, err := planner.ParseTrip(context.Background(), "anything"); err == nil {
		t.Fatalf("expected an error")
	}
	if _, _, err := planner.GenerateItinerary(context.Background(), trips.Trip{}); err == nil {
		t.Fatalf("expected an error")
	}
}
