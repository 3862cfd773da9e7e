package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/waypointhq/waypoint-core/trips"
)

type tripRequest struct {
	Destination string   `json:"destination"`
	StartDate   *string  `json:"startDate,omitempty"`
	Days        int      `json:"days"`
	Budget      float64  `json:"budget"`
	Preferences []string `json:"preferences,omitempty"`
	Status      string   `json:"status,omitempty"`
}

func (t tripRequest) toTrip(userID string) (trips.Trip, error) {
	trip := trips.Trip{
		UserID:      userID,
		Destination: t.Destination,
		Days:        t.Days,
		Budget:      t.Budget,
		Preferences: t.Preferences,
		Status:      trips.TripStatus(t.Status),
	}
	if t.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *t.StartDate)
		if err != nil {
			return trips.Trip{}, err
		}
		trip.StartDate = &parsed
	}
	return trip, nil
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var body tripRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}

	trip, err := body.toTrip(requestUserID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	created, err := s.store.CreateTrip(r.Context(), trip)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create trip")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	owned, err := s.store.ListTrips(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list trips")
		return
	}
	writeJSON(w, http.StatusOK, owned)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.store.GetTrip(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetTrip(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip")
		return
	}

	var body tripRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := body.toTrip(existing.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	updated.ID = existing.ID
	updated.Itinerary = existing.Itinerary
	updated.Tips = existing.Tips

	saved, err := s.store.UpdateTrip(r.Context(), updated)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update trip")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTrip(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete trip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateItinerary(w http.ResponseWriter, r *http.Request) {
	if s.planner == nil {
		writeError(w, http.StatusServiceUnavailable, "itinerary generation is not configured")
		return
	}

	trip, err := s.store.GetTrip(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip")
		return
	}

	days, tips, err := s.planner.GenerateItinerary(r.Context(), trip)
	if err != nil {
		logger.Error("failed to generate itinerary", "error", err)
		writeError(w, http.StatusBadGateway, "failed to generate the itinerary")
		return
	}

	trip.Itinerary = days
	trip.Tips = tips
	saved, err := s.store.UpdateTrip(r.Context(), trip)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save the itinerary")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type expenseRequest struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var body expenseRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	expense, err := s.store.AddExpense(r.Context(), trips.Expense{
		TripID:      r.PathValue("id"),
		UserID:      requestUserID(r),
		Amount:      body.Amount,
		Category:    trips.NormalizeCategory(body.Category),
		Description: body.Description,
	})
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add expense")
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	trip, err := s.store.GetTrip(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip")
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), userID, trip.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, trips.ExpenseStats(trip, expenses))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteExpense(r.Context(), requestUserID(r), r.PathValue("id"))
	if errors.Is(err, trips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
