package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
)

// #region from-decision
// FromDecision flattens a gate decision and its input scores into a log entry.
func FromDecision(cycle uint64, scores []float64, d gate.Decision) DecisionEntry {
	entry := DecisionEntry{
		Cycle:       cycle,
		State:       string(d.State),
		Action:      string(d.Action.Kind),
		Dispersion:  d.Dispersion,
		CanCollapse: d.CanCollapse,
		HoldKey:     d.Action.HoldKey,
		Reason:      d.Reason,
	}
	if d.Winner != nil {
		idx, score := d.Winner.Index, d.Winner.Score
		entry.WinnerIndex = &idx
		entry.WinnerScore = &score
	}
	if finite(scores) {
		if b, err := json.Marshal(scores); err == nil {
			entry.ScoresJSON = string(b)
		}
	}
	return entry
}

// #endregion from-decision

// #region log-decision
// LogDecision writes a collapse decision to the collapse_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	canCollapse := 0
	if entry.CanCollapse {
		canCollapse = 1
	}

	_, err := db.Exec(
		`INSERT INTO collapse_log (cycle, state, action, dispersion, can_collapse, winner_index, winner_score, hold_key, scores_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(entry.Cycle),
		entry.State,
		entry.Action,
		nullIfNonFinite(entry.Dispersion),
		canCollapse,
		nullableInt(entry.WinnerIndex),
		nullableFloat(entry.WinnerScore),
		nullIfEmpty(entry.HoldKey),
		nullIfEmpty(entry.ScoresJSON),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent-decisions
// RecentDecisions returns up to limit logged decisions, newest first.
// Dispersion is +Inf for rows stored without one.
func RecentDecisions(db *sql.DB, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT cycle, state, action, dispersion, can_collapse, winner_index, winner_score, hold_key, scores_json, reason, created_at
		 FROM collapse_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var entries []DecisionEntry
	for rows.Next() {
		var (
			e                           DecisionEntry
			cycle                       int64
			dispersion, winnerScore     sql.NullFloat64
			canCollapse                 int
			winnerIndex                 sql.NullInt64
			holdKey, scoresJSON, reason sql.NullString
			createdStr                  string
		)
		if err := rows.Scan(&cycle, &e.State, &e.Action, &dispersion, &canCollapse, &winnerIndex,
			&winnerScore, &holdKey, &scoresJSON, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Cycle = uint64(cycle)
		e.Dispersion = math.Inf(1)
		if dispersion.Valid {
			e.Dispersion = dispersion.Float64
		}
		e.CanCollapse = canCollapse == 1
		if winnerIndex.Valid {
			idx := int(winnerIndex.Int64)
			e.WinnerIndex = &idx
		}
		if winnerScore.Valid {
			score := winnerScore.Float64
			e.WinnerScore = &score
		}
		e.HoldKey = holdKey.String
		e.ScoresJSON = scoresJSON.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNonFinite(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return nullIfNonFinite(*p)
}

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// #endregion helpers
