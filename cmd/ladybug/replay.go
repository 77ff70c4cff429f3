package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdaWorldAPI/ladybug-learning/internal/replay"
)

var replayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay gate fixtures and report mismatches",
	Long: `Evaluate every case of a gate fixture and compare the outcome with its
expected state and action. Exits non-zero when any case mismatches.

Example:
  ladybug replay internal/replay/testdata/gates.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "print passing cases too")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}
	results, err := replay.Replay(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.Description != "" {
		fmt.Fprintf(out, "%s\n\n", f.Description)
	}
	for _, r := range results {
		switch {
		case !r.Passed:
			fmt.Fprintf(out, "FAIL  %-20s %s\n", r.Name, strings.Join(r.Mismatches, "; "))
		case replayVerbose:
			fmt.Fprintf(out, "ok    %-20s %s/%s\n", r.Name, r.State, r.Action)
		}
	}

	s := replay.Summarize(results)
	fmt.Fprintf(out, "\n%d cases: %d passed, %d failed (flow=%d hold=%d block=%d)\n",
		s.TotalCases, s.Passed, s.Failed, s.ByState["flow"], s.ByState["hold"], s.ByState["block"])
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d cases mismatched", s.Failed, s.TotalCases)
	}
	return nil
}
