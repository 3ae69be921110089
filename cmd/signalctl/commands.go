package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	natsbus "github.com/kailas-cloud/signalsearch/internal/transport/nats"
	signalsearch "github.com/kailas-cloud/signalsearch/pkg/sdk"
)

func newSearchCmd(g *globals) *cobra.Command {
	var (
		sources    []string
		industries []string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid BM25 + vector search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Search(cmd.Context(), signalsearch.SearchRequest{
				WorkspaceID: ws,
				Query:       strings.Join(args, " "),
				Filter:      signalsearch.Filter{Sources: sources, Industries: industries},
				Limit:       g.limit,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), &resp, g.jsonOutput)
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Filter by source (repeatable)")
	cmd.Flags().StringSliceVar(&industries, "industry", nil, "Filter by industry (repeatable)")
	return cmd
}

func newTrendsCmd(g *globals) *cobra.Command {
	var windowDays int
	cmd := &cobra.Command{
		Use:   "trends <query>",
		Short: "Search recent signals and score their momentum",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Trends(cmd.Context(), signalsearch.TrendRequest{
				WorkspaceID: ws,
				Query:       strings.Join(args, " "),
				WindowDays:  windowDays,
				Limit:       g.limit,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), &resp, g.jsonOutput)
		},
	}
	cmd.Flags().IntVar(&windowDays, "window", 0, "Look-back window in days (0 = 30)")
	return cmd
}

func newWhitespaceCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whitespace <industry>",
		Short: "Look for unmet needs in an industry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Whitespace(cmd.Context(), signalsearch.WhitespaceRequest{
				WorkspaceID: ws,
				Industry:    args[0],
				Limit:       g.limit,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), &resp, g.jsonOutput)
		},
	}
}

func newIndexCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "index <signal-id>...",
		Short: "Index signals from Postgres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			ids, err := parseSignalIDs(args)
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			out := indexOutput{}
			for _, id := range ids {
				if err := c.Index(cmd.Context(), ws, id); err != nil {
					out.Failed = append(out.Failed, indexFailure{SignalID: id, Error: err.Error()})
					continue
				}
				out.Indexed = append(out.Indexed, id)
			}
			if err := printIndexOutput(cmd.OutOrStdout(), &out, g.jsonOutput); err != nil {
				return err
			}
			if len(out.Failed) > 0 {
				return fmt.Errorf("%d of %d signals failed to index", len(out.Failed), len(ids))
			}
			return nil
		},
	}
}

func newReindexCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Reindex every signal of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Reindex(cmd.Context(), ws)
			if perr := printReindexReport(cmd.OutOrStdout(), &report, g.jsonOutput); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newEnsureIndexCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-index",
		Short: "Create the search index if it does not exist and show its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			created, err := c.EnsureIndex(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := c.IndexStats(cmd.Context())
			if err != nil {
				return err
			}
			return printIndexStats(cmd.OutOrStdout(), created, &stats, g.jsonOutput)
		},
	}
}

func newDropIndexCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop-index",
		Short: "Drop the search index, keeping indexed documents",
		Long: "Drop the search index so it can be recreated, e.g. after changing vector dimensions.\n" +
			"Indexed documents stay in Redis and are re-indexed by the next ensure-index.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop the index without --yes")
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.DropIndex(cmd.Context()); err != nil {
				return err
			}
			if g.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"dropped": true})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "index dropped")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the drop")
	return cmd
}

func newCountCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count the workspace's indexed signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			c, err := g.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Count(cmd.Context(), ws)
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"workspace_id": ws, "count": n})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}

func newPublishCmd(g *globals) *cobra.Command {
	var deleted bool
	cmd := &cobra.Command{
		Use:   "publish <signal-id>...",
		Short: "Publish signal events for the indexer worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.workspaceID()
			if err != nil {
				return err
			}
			ids, err := parseSignalIDs(args)
			if err != nil {
				return err
			}
			cfg, logger, err := g.loadConfig()
			if err != nil {
				return err
			}

			bus, err := natsbus.Connect(cfg.NATS.URL, natsbus.Options{Name: "signalctl"}, logger)
			if err != nil {
				return err
			}
			defer bus.Close()

			subject := cfg.NATS.CreatedSubject
			if deleted {
				subject = cfg.NATS.DeletedSubject
			}
			for _, id := range ids {
				if err := bus.Publish(cmd.Context(), subject, natsbus.SignalEvent{SignalID: id, WorkspaceID: ws}); err != nil {
					return err
				}
			}
			if err := bus.Flush(); err != nil {
				return err
			}
			if g.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"subject": subject, "published": len(ids)})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %d events on %s\n", len(ids), subject)
			return err
		},
	}
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Publish deletion events instead of creation events")
	return cmd
}

func parseSignalIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("signal id %q is not a UUID", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
