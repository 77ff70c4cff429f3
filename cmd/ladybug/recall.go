package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	recallLimit     int
	recallThreshold float64
	recallJSON      bool
)

var recallCmd = &cobra.Command{
	Use:   "recall <text>",
	Short: "Recall journaled moments resonating with text",
	Long: `Restore memory from the journal and list the moments that resonate with
the given text, strongest first. The best sweet-spot analogy, if any, is shown
separately.

Examples:
  ladybug recall "the stem bends under weight"
  ladybug recall "a new leaf" --limit 3 --threshold 0.7`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecall,
}

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 0, "maximum results (default recall.limit)")
	recallCmd.Flags().Float64VarP(&recallThreshold, "threshold", "t", 0, "minimum resonance (default recall.threshold)")
	recallCmd.Flags().BoolVar(&recallJSON, "json", false, "output as JSON")
}

type recallRow struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Content    string  `json:"content"`
	Cycle      uint64  `json:"cycle"`
	Similarity float64 `json:"similarity"`
	Resonance  float64 `json:"resonance"`
	IceCaked   bool    `json:"ice_caked"`
}

func runRecall(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, threshold := a.cfg.Recall.Limit, a.cfg.Recall.Threshold
	if cmd.Flags().Changed("limit") {
		limit = recallLimit
	}
	if cmd.Flags().Changed("threshold") {
		threshold = recallThreshold
	}

	results := a.engine.Recall(query, threshold, limit)
	rows := make([]recallRow, len(results))
	for i, r := range results {
		mo := r.Entry.Moment
		rows[i] = recallRow{
			ID:         mo.ID,
			Kind:       string(mo.Kind),
			Content:    mo.Content,
			Cycle:      r.Entry.Cycle,
			Similarity: r.Similarity,
			Resonance:  r.Resonance,
			IceCaked:   mo.IceCaked || a.engine.IsIceCaked(mo.ID),
		}
	}

	out := cmd.OutOrStdout()
	if recallJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No resonant moments")
	}
	for i, row := range rows {
		mark := ""
		if row.IceCaked {
			mark = " *"
		}
		fmt.Fprintf(out, "%d. [%.3f] %s%s (sim=%.3f, cycle %d)\n", i+1, row.Resonance, row.Kind, mark,
			row.Similarity, row.Cycle)
		fmt.Fprintf(out, "   %s\n", truncate(row.Content, 80))
	}

	if r, ok := a.engine.SweetSpot(query); ok {
		fmt.Fprintf(out, "\nSweet spot: %q (sim=%.3f)\n", truncate(r.Entry.Moment.Content, 60), r.Similarity)
	}
	fmt.Fprintf(out, "\nBelief: %s\n", a.engine.Belief(results))
	return nil
}
