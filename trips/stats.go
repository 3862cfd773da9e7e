package trips

// Stats summarizes a trip's spending against its budget.
type Stats struct {
	Total      float64              `json:"total"`
	ByCategory map[Category]float64 `json:"byCategory"`
	Budget     float64              `json:"budget"`
	Remaining  float64              `json:"remaining"`
	Count      int                  `json:"count"`
}

// ExpenseStats folds the trip's expenses into per-category totals and budget
// remaining. Remaining goes negative when the budget is exceeded.
func ExpenseStats(trip Trip, expenses []Expense) Stats {
	stats := Stats{
		ByCategory: map[Category]float64{},
		Budget:     trip.Budget,
		Count:      len(expenses),
	}
	for _, expense := range expenses {
		stats.Total += expense.Amount
		stats.ByCategory[expense.Category] += expense.Amount
	}
	stats.Remaining = trip.Budget - stats.Total
	return stats
}
