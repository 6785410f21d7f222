package ticketnumber

import (
	"fmt"
	"strings"
)

// Resolve maps a configured generator name to a concrete Generator.
// Valid names: Date, AutoIncrement (case-insensitive).
func Resolve(name, systemID string, clk Clock) (Generator, error) {
	cfg := Config{SystemID: systemID, MinCounterSize: 5}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "date", "":
		return NewDate(cfg, clk), nil
	case "autoincrement", "increment":
		return NewAutoIncrement(cfg), nil
	}
	return nil, fmt.Errorf("unknown ticket number generator %q", name)
}
