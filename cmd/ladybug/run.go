package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
	"github.com/AdaWorldAPI/ladybug-learning/internal/moment"
	"github.com/AdaWorldAPI/ladybug-learning/internal/orchestrator"
)

var runMetricsAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive session",
	Long: `Start an interactive session. Each line is recorded as a moment:

  !text        breakthrough
  x text       failure
  ?text        deliberate: recall and gate without recording
  text         encounter

Session commands:
  :stats               show engine counters
  :ice <id> [note]     freeze a moment as canonical
  quit | exit          leave`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
}

// #region session

func runSession(cmd *cobra.Command, _ []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Metrics.Addr
	if runMetricsAddr != "" {
		addr = runMetricsAddr
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(a), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		a.logger.Info("metrics listening", zap.String("addr", addr))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Ladybug ready.")
	fmt.Fprintf(out, "  Journal: %s | Cycle: %d | Moments: %d\n",
		displayPath(a.cfg.Store.Path), a.engine.Cycle(), a.engine.Memory().Len())
	fmt.Fprintln(out, "Type a moment (or 'quit' to exit):")

	s := &session{
		engine:    a.engine,
		threshold: a.cfg.Recall.Threshold,
		limit:     a.cfg.Recall.Limit,
		out:       out,
	}
	return s.loop(cmd.InOrStdin())
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

func displayPath(p string) string {
	if p == "" {
		return "(none)"
	}
	return p
}

// session reads lines and drives the engine.
type session struct {
	engine    *orchestrator.Engine
	threshold float64
	limit     int
	out       io.Writer
}

func (s *session) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := s.handle(line); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *session) handle(line string) error {
	if strings.HasPrefix(line, ":") {
		return s.command(line[1:])
	}

	in := parseLine(line)
	if in.deliberate {
		return s.deliberate(in.content)
	}

	mo, err := s.engine.Record(in.kind, in.content, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "[cycle %d] %s %s\n", mo.Cycle, mo.Kind, shortID(mo.ID))

	if r, ok := s.engine.SweetSpot(in.content); ok && r.Entry.Moment.ID != mo.ID {
		fmt.Fprintf(s.out, "  reminds of: %q (sim=%.3f, cycle %d)\n",
			truncate(r.Entry.Moment.Content, 60), r.Similarity, r.Entry.Cycle)
	}
	return nil
}

func (s *session) deliberate(query string) error {
	delib, err := s.engine.Deliberate(query, s.threshold, s.limit, true)
	for i, r := range delib.Results {
		fmt.Fprintf(s.out, "  %d. [%.3f] %s %q\n", i, r.Resonance, r.Entry.Moment.Kind,
			truncate(r.Entry.Moment.Content, 60))
	}
	printDecision(s.out, delib.Decision)
	fmt.Fprintf(s.out, "  belief %s\n", delib.Belief)
	return err
}

func (s *session) command(cmdline string) error {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "stats":
		st := s.engine.Stats()
		fmt.Fprintf(s.out, "  cycle=%d moments=%d ice_caked=%d captures=%d queries=%d cache=%d/%d\n",
			st.Cycle, st.Entries, st.IceCaked, st.Memory.TotalCaptures, st.Memory.TotalQueries,
			st.CacheHits, st.CacheHits+st.CacheMisses)
		return nil
	case "ice":
		if len(fields) < 2 {
			return fmt.Errorf("usage: :ice <id> [note]")
		}
		id, err := s.resolveID(fields[1])
		if err != nil {
			return err
		}
		if err := s.engine.IceCake(id, strings.Join(fields[2:], " ")); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "  ice-caked %s\n", shortID(id))
		return nil
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// resolveID expands a unique ID prefix, as printed by shortID.
func (s *session) resolveID(prefix string) (string, error) {
	var match string
	for _, e := range s.engine.Memory().Snapshot() {
		if strings.HasPrefix(e.Moment.ID, prefix) {
			if match != "" && match != e.Moment.ID {
				return "", fmt.Errorf("ambiguous id prefix %q", prefix)
			}
			match = e.Moment.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s: %w", prefix, orchestrator.ErrUnknownMoment)
	}
	return match, nil
}

// #endregion session

// #region parsing

type lineInput struct {
	kind       moment.Kind
	content    string
	deliberate bool
}

// parseLine maps a session line to a moment kind by its prefix.
func parseLine(line string) lineInput {
	switch {
	case strings.HasPrefix(line, "!"):
		return lineInput{kind: moment.Breakthrough, content: strings.TrimSpace(line[1:])}
	case strings.HasPrefix(line, "?"):
		return lineInput{deliberate: true, content: strings.TrimSpace(line[1:])}
	case strings.HasPrefix(line, "x "):
		return lineInput{kind: moment.Failure, content: strings.TrimSpace(line[2:])}
	default:
		return lineInput{kind: moment.Encounter, content: line}
	}
}

// #endregion parsing

// #region output

func printDecision(w io.Writer, d gate.Decision) {
	fmt.Fprintf(w, "  gate: %s -> %s (%s)\n", d.State, d.Action.Kind, d.Reason)
	switch d.Action.Kind {
	case gate.ActionHold:
		fmt.Fprintf(w, "  hold key: %s\n", d.Action.HoldKey)
	case gate.ActionClarify:
		fmt.Fprintf(w, "  question: %s\n", d.Action.Question)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// #endregion output
