package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdaWorldAPI/ladybug-learning/internal/journal"
	"github.com/AdaWorldAPI/ladybug-learning/internal/logging"
)

var (
	inspectLast      int
	inspectDecisions bool
	inspectJSON      bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List journaled moments or gate decisions",
	Long: `List the most recent journaled moments, newest first. With --decisions,
list the collapse gate decisions logged by earlier sessions instead.

Examples:
  ladybug inspect --last 10
  ladybug inspect --decisions --json`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent rows")
	inspectCmd.Flags().BoolVar(&inspectDecisions, "decisions", false, "list gate decisions instead of moments")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store == nil {
		return fmt.Errorf("no journal configured (set --db or store.path)")
	}
	if inspectDecisions {
		return inspectDecisionLog(cmd.OutOrStdout(), a.store, inspectLast, inspectJSON)
	}
	return inspectMoments(cmd.OutOrStdout(), a.store, inspectLast, inspectJSON)
}

// #region moments

type momentRow struct {
	Seq       int64    `json:"seq"`
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Cycle     uint64   `json:"cycle"`
	Content   string   `json:"content"`
	Popcount  int      `json:"popcount"`
	Novelty   *float64 `json:"novelty,omitempty"`
	IceCaked  bool     `json:"ice_caked"`
	IceNote   string   `json:"ice_note,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func inspectMoments(w io.Writer, store *journal.Store, last int, jsonOut bool) error {
	records, err := store.List(last)
	if err != nil {
		return err
	}

	rows := make([]momentRow, len(records))
	for i, rec := range records {
		mo := rec.Moment
		rows[i] = momentRow{
			Seq:       rec.Seq,
			ID:        mo.ID,
			Kind:      string(mo.Kind),
			Cycle:     mo.Cycle,
			Content:   mo.Content,
			Popcount:  mo.Fingerprint.Popcount(),
			IceCaked:  mo.IceCaked,
			IceNote:   mo.IceNote,
			CreatedAt: rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if mo.Qualia != nil {
			n := mo.Qualia.Novelty
			rows[i].Novelty = &n
		}
	}

	if jsonOut {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no moments found")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-8s  %-12s  %-6s  %-4s  %s\n", "SEQ", "ID", "KIND", "CYCLE", "ICE", "CONTENT")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range rows {
		ice := ""
		if r.IceCaked {
			ice = "yes"
		}
		fmt.Fprintf(w, "%-5d  %-8s  %-12s  %-6d  %-4s  %s\n",
			r.Seq, shortID(r.ID), r.Kind, r.Cycle, ice, truncate(r.Content, 36))
	}
	return nil
}

// #endregion moments

// #region decisions

type decisionRow struct {
	Cycle       uint64   `json:"cycle"`
	State       string   `json:"state"`
	Action      string   `json:"action"`
	Dispersion  *float64 `json:"dispersion"`
	WinnerIndex *int     `json:"winner_index,omitempty"`
	HoldKey     string   `json:"hold_key,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func inspectDecisionLog(w io.Writer, store *journal.Store, last int, jsonOut bool) error {
	entries, err := logging.RecentDecisions(store.DB(), last)
	if err != nil {
		return err
	}

	rows := make([]decisionRow, len(entries))
	for i, e := range entries {
		rows[i] = decisionRow{
			Cycle:       e.Cycle,
			State:       e.State,
			Action:      e.Action,
			WinnerIndex: e.WinnerIndex,
			HoldKey:     e.HoldKey,
			Reason:      e.Reason,
			CreatedAt:   e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if !math.IsInf(e.Dispersion, 0) && !math.IsNaN(e.Dispersion) {
			d := e.Dispersion
			rows[i].Dispersion = &d
		}
	}

	if jsonOut {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no decisions found")
		return nil
	}

	fmt.Fprintf(w, "%-6s  %-5s  %-8s  %-8s  %s\n", "CYCLE", "STATE", "ACTION", "SD", "REASON")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range rows {
		sd := "-"
		if r.Dispersion != nil {
			sd = fmt.Sprintf("%.4f", *r.Dispersion)
		}
		fmt.Fprintf(w, "%-6d  %-5s  %-8s  %-8s  %s\n", r.Cycle, r.State, r.Action, sd, r.Reason)
	}
	return nil
}

// #endregion decisions

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
