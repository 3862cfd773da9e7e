// Package trips holds the trip planning domain: trips, their expenses and
// itineraries, and the storage seam the HTTP layer talks to.
package trips

import "time"

type TripStatus string

const (
	TripStatusPlanning TripStatus = "planning"
	TripStatusActive   TripStatus = "active"
	TripStatusDone     TripStatus = "done"
)

type Trip struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Destination string     `json:"destination"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	Days        int        `json:"days"`
	Budget      float64    `json:"budget"`
	Preferences []string   `json:"preferences,omitempty"`
	Status      TripStatus `json:"status"`

	Itinerary []ItineraryDay `json:"itinerary,omitempty"`
	Tips      []string       `json:"tips,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ItineraryDay struct {
	Day           int      `json:"day"`
	Title         string   `json:"title"`
	Activities    []string `json:"activities"`
	EstimatedCost float64  `json:"estimatedCost"`
}

type Category string

const (
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryFood          Category = "food"
	CategoryTickets       Category = "tickets"
	CategoryShopping      Category = "shopping"
	CategoryOther         Category = "other"
)

// Categories lists every valid expense category, in display order.
func Categories() []Category {
	return []Category{
		CategoryTransport,
		CategoryAccommodation,
		CategoryFood,
		CategoryTickets,
		CategoryShopping,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	for _, category := range Categories() {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unknown category labels to CategoryOther so that
// free-form model output cannot leak invalid categories into storage.
func NormalizeCategory(raw string) Category {
	if c := Category(raw); c.Valid() {
		return c
	}
	return CategoryOther
}

type Expense struct {
	ID          string    `json:"id"`
	TripID      string    `json:"tripId"`
	UserID      string    `json:"userId"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
