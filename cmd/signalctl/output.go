package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	signalsearch "github.com/kailas-cloud/signalsearch/pkg/sdk"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type resultOutput struct {
	SignalID   uuid.UUID                          `json:"signal_id"`
	Title      string                             `json:"title"`
	Source     string                             `json:"source"`
	Score      float64                            `json:"score"`
	Method     string                             `json:"method"`
	Breakdown  signalsearch.ScoreBreakdown        `json:"breakdown"`
	Trend      *signalsearch.TrendIndicators      `json:"trend,omitempty"`
	Whitespace *signalsearch.WhitespaceIndicators `json:"whitespace,omitempty"`
}

type responseOutput struct {
	Query        string         `json:"query"`
	Method       string         `json:"method"`
	Total        int            `json:"total"`
	SearchTimeMs float64        `json:"search_time_ms"`
	Results      []resultOutput `json:"results"`
}

func printResponse(w io.Writer, resp *signalsearch.Response, asJSON bool) error {
	if asJSON {
		out := responseOutput{
			Query:        resp.Query,
			Method:       resp.Method,
			Total:        len(resp.Results),
			SearchTimeMs: float64(resp.SearchTime.Microseconds()) / 1000,
			Results:      make([]resultOutput, len(resp.Results)),
		}
		for i := range resp.Results {
			r := &resp.Results[i]
			out.Results[i] = resultOutput{
				SignalID:   r.Signal.ID,
				Title:      r.Signal.Title,
				Source:     r.Signal.Source,
				Score:      r.Score,
				Method:     r.Method,
				Breakdown:  r.Breakdown,
				Trend:      r.Trend,
				Whitespace: r.Whitespace,
			}
		}
		return printJSON(w, out)
	}

	if len(resp.Results) == 0 {
		_, err := fmt.Fprintf(w, "no results for %q\n", resp.Query)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSCORE\tMETHOD\tSOURCE\tTITLE\tSIGNAL\n")
	for i := range resp.Results {
		r := &resp.Results[i]
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\t%s\t%s\n",
			i+1, r.Score, r.Method, r.Signal.Source, title(&r.Signal), r.Signal.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d results for %q (%s) in %s\n",
		len(resp.Results), resp.Query, resp.Method, resp.SearchTime.Round(time.Microsecond))
	return err
}

// title falls back to the start of the content for untitled signals.
func title(s *signalsearch.Signal) string {
	const maxLen = 60
	t := s.Title
	if t == "" {
		t = strings.Join(strings.Fields(s.Content), " ")
	}
	if r := []rune(t); len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return t
}

type indexFailure struct {
	SignalID uuid.UUID `json:"signal_id"`
	Error    string    `json:"error"`
}

type indexOutput struct {
	Indexed []uuid.UUID    `json:"indexed"`
	Failed  []indexFailure `json:"failed,omitempty"`
}

func printIndexOutput(w io.Writer, out *indexOutput, asJSON bool) error {
	if asJSON {
		if out.Indexed == nil {
			out.Indexed = []uuid.UUID{}
		}
		return printJSON(w, out)
	}
	for _, id := range out.Indexed {
		if _, err := fmt.Fprintf(w, "indexed %s\n", id); err != nil {
			return err
		}
	}
	for _, f := range out.Failed {
		if _, err := fmt.Fprintf(w, "failed  %s: %s\n", f.SignalID, f.Error); err != nil {
			return err
		}
	}
	return nil
}

func printReindexReport(w io.Writer, r *signalsearch.ReindexReport, asJSON bool) error {
	if asJSON {
		out := struct {
			Indexed int      `json:"indexed"`
			Failed  int      `json:"failed"`
			Errors  []string `json:"errors,omitempty"`
		}{Indexed: r.Indexed, Failed: r.Failed}
		if r.Err != nil {
			out.Errors = strings.Split(r.Err.Error(), "\n")
		}
		return printJSON(w, out)
	}
	if _, err := fmt.Fprintf(w, "indexed %d, failed %d\n", r.Indexed, r.Failed); err != nil {
		return err
	}
	if r.Err != nil {
		_, err := fmt.Fprintf(w, "first failures:\n%s\n", r.Err)
		return err
	}
	return nil
}

func printIndexStats(w io.Writer, created bool, s *signalsearch.IndexStats, asJSON bool) error {
	if asJSON {
		return printJSON(w, struct {
			Created bool `json:"created"`
			*signalsearch.IndexStats
		}{created, s})
	}
	state := "exists"
	if created {
		state = "created"
	}
	if _, err := fmt.Fprintf(w, "index %s %s: %d documents\n", s.Name, state, s.Documents); err != nil {
		return err
	}
	if s.Indexing {
		_, err := fmt.Fprintf(w, "backfill in progress: %.0f%%\n", s.PercentIndexed*100)
		return err
	}
	return nil
}
