package ticketnumber

import (
	"context"
	"fmt"
	"time"
)

// Date formats numbers as YYYYMMDD + SystemID + zero-padded daily counter.
type Date struct {
	cfg   Config
	clock Clock
}

// NewDate creates a date-based generator. A nil clock uses the real UTC date.
func NewDate(cfg Config, clk Clock) *Date {
	if clk == nil {
		clk = realClock{}
	}
	return &Date{cfg: cfg, clock: clk}
}

func (g *Date) Name() string      { return "Date" }
func (g *Date) IsDateBased() bool { return true }

func (g *Date) Next(ctx context.Context, store CounterStore) (string, error) {
	tp := g.clock.Now()
	counter, err := store.Add(ctx, true, 1)
	if err != nil {
		return "", err
	}
	width := g.cfg.MinCounterSize
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%04d%02d%02d%s%0*d", tp.Year, tp.Month, tp.Day, g.cfg.SystemID, width, counter), nil
}

// AutoIncrement formats numbers as SystemID + zero-padded global counter.
type AutoIncrement struct{ cfg Config }

func NewAutoIncrement(cfg Config) *AutoIncrement { return &AutoIncrement{cfg: cfg} }

func (g *AutoIncrement) Name() string      { return "AutoIncrement" }
func (g *AutoIncrement) IsDateBased() bool { return false }

func (g *AutoIncrement) Next(ctx context.Context, store CounterStore) (string, error) {
	counter, err := store.Add(ctx, false, 1)
	if err != nil {
		return "", err
	}
	width := g.cfg.MinCounterSize
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s%0*d", g.cfg.SystemID, width, counter), nil
}

type realClock struct{}

func (realClock) Now() TimeParts {
	t := time.Now().UTC()
	return TimeParts{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
