// Package ticketnumber generates human-facing ticket numbers. Generators are
// pure formatting over an atomically incremented counter, so uniqueness is
// the counter store's problem and formatting stays testable.
package ticketnumber

import "context"

// Generator produces the next ticket number.
type Generator interface {
	Name() string
	Next(ctx context.Context, store CounterStore) (string, error)
	IsDateBased() bool
}

// CounterStore hands out monotonically increasing counters. Date-based
// generators ask for a counter scoped to the current day so numbers restart
// at one each morning.
type CounterStore interface {
	// Add increments the counter by offset (>= 1) and returns the new value.
	Add(ctx context.Context, dateScoped bool, offset int64) (int64, error)
}

// Config carries the knobs shared by all generators.
type Config struct {
	SystemID       string
	MinCounterSize int
}

// Clock abstracts the date parts so tests can pin a day.
type Clock interface{ Now() TimeParts }

// TimeParts is the date portion a date-based generator needs.
type TimeParts struct {
	Year  int
	Month int
	Day   int
}
