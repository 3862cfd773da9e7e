package trips

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps all trips and expenses in process memory. It is the
// default Store; durable backends implement the same interface.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[string]Trip
	expenses map[string]Expense
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    map[string]Trip{},
		expenses: map[string]Expense{},
	}
}

func (s *MemoryStore) CreateTrip(_ context.Context, trip Trip) (Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip.ID = uuid.NewString()
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.Status == "" {
		trip.Status = TripStatusPlanning
	}
	s.trips[trip.ID] = trip
	return trip, nil
}

func (s *MemoryStore) GetTrip(_ context.Context, userID, tripID string) (Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[tripID]
	if !ok || trip.UserID != userID {
		return Trip{}, ErrNotFound
	}
	return trip, nil
}

func (s *MemoryStore) ListTrips(_ context.Context, userID string) ([]Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := []Trip{}
	for _, trip := range s.trips {
		if trip.UserID == userID {
			owned = append(owned, trip)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned, nil
}

func (s *MemoryStore) UpdateTrip(_ context.Context, trip Trip) (Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.trips[trip.ID]
	if !ok || existing.UserID != trip.UserID {
		return Trip{}, ErrNotFound
	}
	trip.CreatedAt = existing.CreatedAt
	trip.UpdatedAt = time.Now()
	s.trips[trip.ID] = trip
	return trip, nil
}

func (s *MemoryStore) DeleteTrip(_ context.Context, userID, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok || trip.UserID != userID {
		return ErrNotFound
	}
	delete(s.trips, tripID)
	for id, expense := range s.expenses {
		if expense.TripID == tripID {
			delete(s.expenses, id)
		}
	}
	return nil
}

func (s *MemoryStore) AddExpense(_ context.Context, expense Expense) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[expense.TripID]
	if !ok || trip.UserID != expense.UserID {
		return Expense{}, ErrNotFound
	}

	expense.ID = uuid.NewString()
	expense.CreatedAt = time.Now()
	if !expense.Category.Valid() {
		expense.Category = CategoryOther
	}
	s.expenses[expense.ID] = expense
	return expense, nil
}

func (s *MemoryStore) ListExpenses(_ context.Context, userID, tripID string) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, ErrNotFound
	}

	owned := []Expense{}
	for _, expense := range s.expenses {
		if expense.TripID == tripID {
			owned = append(owned, expense)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	return owned, nil
}

func (s *MemoryStore) DeleteExpense(_ context.Context, userID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense, ok := s.expenses[expenseID]
	if !ok || expense.UserID != userID {
		return ErrNotFound
	}
	delete(s.expenses, expenseID)
	return nil
}
