package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the collapse_log table.
type DecisionEntry struct {
	Cycle       uint64
	State       string // "flow" | "hold" | "block"
	Action      string // "collapse" | "hold" | "clarify" | "block"
	Dispersion  float64
	CanCollapse bool
	WinnerIndex *int
	WinnerScore *float64
	HoldKey     string
	ScoresJSON  string
	Reason      string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region logger-config
// Config selects the structured logger's level and encoding.
type Config struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // json | console
}

// DefaultConfig logs info and above as JSON.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// #endregion logger-config
