package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/config"
	logpkg "github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/version"
	signalsearch "github.com/kailas-cloud/signalsearch/pkg/sdk"
)

// globals holds the persistent flags.
type globals struct {
	env        string
	workspace  string
	limit      int
	jsonOutput bool
}

func (g *globals) workspaceID() (uuid.UUID, error) {
	if g.workspace == "" {
		return uuid.Nil, fmt.Errorf("--workspace is required")
	}
	id, err := uuid.Parse(g.workspace)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--workspace must be a UUID: %w", err)
	}
	return id, nil
}

func (g *globals) loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.env)
	if err != nil {
		return config.Config{}, nil, err
	}
	level := cfg.Logging.Level
	if level == "" || level == "debug" || level == "info" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(g.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// client builds an SDK client from the environment's config file.
func (g *globals) client(ctx context.Context) (*signalsearch.Client, error) {
	cfg, logger, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return signalsearch.New(ctx, clientOptions(cfg, logger)...)
}

// clientOptions mirrors the server wiring so both write and read the same index.
func clientOptions(cfg config.Config, logger *zap.Logger) []signalsearch.Option {
	opts := []signalsearch.Option{
		signalsearch.WithRedis(cfg.Redis.Addrs[0], cfg.Redis.Password),
		signalsearch.WithKeyPrefix(cfg.Redis.KeyPrefix),
		signalsearch.WithPostgres(cfg.Postgres.DSN),
		signalsearch.WithVectorDimensions(cfg.Embedding.Dimensions),
		signalsearch.WithHNSW(cfg.Redis.HNSWM, cfg.Redis.HNSWEFConstruct),
		signalsearch.WithOpenAI(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model),
		signalsearch.WithInstructions(cfg.Embedding.DocumentInstruction, cfg.Embedding.QueryInstruction),
		signalsearch.WithLogger(logger),
	}
	switch cfg.Reranker.Kind {
	case "http":
		opts = append(opts, signalsearch.WithRerankServer(cfg.Reranker.URL, cfg.Reranker.Model, cfg.Reranker.APIKey))
	case "none":
		opts = append(opts, signalsearch.WithoutRerank())
	}
	return opts
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "signalctl",
		Short:         "Operate the signalsearch hybrid search engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.env, "env", config.GetEnv(), "Config environment (config/<env>.yaml)")
	root.PersistentFlags().StringVarP(&g.workspace, "workspace", "w", "", "Workspace UUID")
	root.PersistentFlags().IntVarP(&g.limit, "limit", "n", 0, "Result limit (0 = endpoint default)")
	root.PersistentFlags().BoolVarP(&g.jsonOutput, "json", "j", false, "Output as JSON")

	root.AddCommand(
		newSearchCmd(g),
		newTrendsCmd(g),
		newWhitespaceCmd(g),
		newIndexCmd(g),
		newReindexCmd(g),
		newEnsureIndexCmd(g),
		newDropIndexCmd(g),
		newCountCmd(g),
		newPublishCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), version.Get())
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String("signalctl"))
				return err
			},
		},
	)
	return root
}
