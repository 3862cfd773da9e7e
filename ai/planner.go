// Package ai turns free-form trip talk, usually a voice transcript, into
// structured trip and expense drafts, and generates day-by-day itineraries.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/waypointhq/waypoint-core/ai/qwen"
	"github.com/waypointhq/waypoint-core/trips"
)

// ExpenseDraft is what the model extracted from one utterance about spending.
// Nil Amount means the amount was not stated; Missing lists the fields the
// user still has to provide.
type ExpenseDraft struct {
	Amount      *float64 `json:"amount,omitempty"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Missing     []string `json:"missing,omitempty"`
}

// TripDraft is what the model extracted from one utterance about a planned
// trip.
type TripDraft struct {
	Destination *string  `json:"destination,omitempty"`
	StartDate   *string  `json:"startDate,omitempty"`
	Days        *int     `json:"days,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
	Confidence  float64  `json:"confidence"`
	Missing     []string `json:"missing,omitempty"`
}

// Itinerary is a generated day-by-day plan for a trip.
type Itinerary struct {
	Days []ItineraryDayPlan `json:"days"`
	Tips []string           `json:"tips,omitempty"`
}

type ItineraryDayPlan struct {
	Day           int      `json:"day"`
	Title         string   `json:"title"`
	Activities    []string `json:"activities"`
	EstimatedCost float64  `json:"estimatedCost"`
}

// Planner wraps the model client behind trip-domain operations.
type Planner struct {
	client *qwen.Client
}

func NewPlanner(client *qwen.Client) *Planner {
	return &Planner{client: client}
}

const parseExpenseInstructions = `You extract travel expense records from short, ` +
	`possibly noisy voice transcripts. The category must be one of: transport, ` +
	`accommodation, food, tickets, shopping, other. When the amount is not ` +
	`stated, omit it and add "amount" to missing. Confidence is 0 to 1.`

// ParseExpense extracts an expense draft from a transcript. The category is
// normalized to the known set; anything unrecognized becomes "other".
func (p *Planner) ParseExpense(ctx context.Context, transcript string) (*ExpenseDraft, error) {
	draft, err := qwen.PromptJSONSchema(ctx, p.client, transcript, parseExpenseInstructions, ExpenseDraft{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse expense: %w", err)
	}
	draft.Category = string(trips.NormalizeCategory(draft.Category))
	return draft, nil
}

const parseTripInstructions = `You extract trip plans from short, possibly noisy ` +
	`voice transcripts. Dates are formatted as YYYY-MM-DD. List every field the ` +
	`user did not state in missing. Confidence is 0 to 1.`

// ParseTrip extracts a trip draft from a transcript.
func (p *Planner) ParseTrip(ctx context.Context, transcript string) (*TripDraft, error) {
	draft, err := qwen.PromptJSONSchema(ctx, p.client, transcript, parseTripInstructions, TripDraft{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse trip: %w", err)
	}
	return draft, nil
}

const generateItineraryInstructions = `You are a travel planner. Produce a ` +
	`realistic day-by-day itinerary within the stated budget, with per-day cost ` +
	`estimates and a few practical tips.`

// GenerateItinerary asks the model for a day plan covering the whole trip and
// copies it into the trip's itinerary fields.
func (p *Planner) GenerateItinerary(ctx context.Context, trip trips.Trip) ([]trips.ItineraryDay, []string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Destination: %s\nDays: %d\nBudget: %.2f\n", trip.Destination, trip.Days, trip.Budget)
	if trip.StartDate != nil {
		fmt.Fprintf(&prompt, "Start date: %s\n", trip.StartDate.Format("2006-01-02"))
	}
	if len(trip.Preferences) > 0 {
		fmt.Fprintf(&prompt, "Preferences: %s\n", strings.Join(trip.Preferences, ", "))
	}

	itinerary, err := qwen.PromptJSONSchema(ctx, p.client, prompt.String(), generateItineraryInstructions, Itinerary{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate itinerary: %w", err)
	}

	var days []trips.ItineraryDay
	if err := copier.Copy(&days, itinerary.Days); err != nil {
		return nil, nil, fmt.Errorf("failed to map itinerary days: %w", err)
	}
	return days, itinerary.Tips, nil
}
