package trips

import (
	"context"
	"errors"
)

// ErrNotFound means the trip or expense does not exist or belongs to another
// user. Ownership misses are indistinguishable from absence on purpose.
var ErrNotFound = errors.New("not found")

// Store is the persistence seam. Every operation is scoped to the owning
// user; records of other users are invisible.
type Store interface {
	CreateTrip(ctx context.Context, trip Trip) (Trip, error)
	GetTrip(ctx context.Context, userID, tripID string) (Trip, error)
	ListTrips(ctx context.Context, userID string) ([]Trip, error)
	UpdateTrip(ctx context.Context, trip Trip) (Trip, error)
	DeleteTrip(ctx context.Context, userID, tripID string) error

	AddExpense(ctx context.Context, expense Expense) (Expense, error)
	ListExpenses(ctx context.Context, userID, tripID string) ([]Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}
