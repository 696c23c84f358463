package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"archive-analyzer/config"
	"archive-analyzer/memorylol"
	"archive-analyzer/services"
	"archive-analyzer/storage"
	"archive-analyzer/utils"
	"archive-analyzer/wayback"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "archive-analyzer",
	Short: "Analyze a Twitter account's archived posts",
	Long: `archive-analyzer looks up a handle's account history on memory.lol, pulls its
archived posts from the Wayback Machine, filters them by keyword and reports
activity, content and timeline analytics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "archive-analyzer %s\n", version)
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command shares.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	store  storage.RecordStore
}

func newApp() (*app, error) {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug())

	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) retry() *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: a.cfg.MaxRetries, BaseDelay: time.Second, Logger: a.logger}
}

func (a *app) headers() (*utils.HeaderSource, error) {
	agents, err := utils.LoadUserAgents(a.cfg.UserAgentsFile)
	if err != nil {
		return nil, err
	}
	return utils.NewHeaderSource(agents, rand.New(rand.NewSource(time.Now().UnixNano()))), nil
}

func (a *app) resolver(headers *utils.HeaderSource) *memorylol.Client {
	return memorylol.NewClient(a.cfg.MemoryLolBaseURL, a.cfg.HTTPTimeout, headers, a.retry(), a.logger)
}

// analyzer wires the full pipeline from configuration.
func (a *app) analyzer() (*services.Analyzer, error) {
	headers, err := a.headers()
	if err != nil {
		return nil, err
	}

	opts := wayback.Options{
		CDXURL:         a.cfg.WaybackCDXURL,
		WebURL:         a.cfg.WaybackWebURL,
		OEmbedURL:      a.cfg.OEmbedURL,
		Timeout:        a.cfg.HTTPTimeout,
		RecoverText:    a.cfg.RecoverText,
		MaxConcurrency: a.cfg.MaxConcurrency,
		RateLimitMs:    a.cfg.RateLimitMs,
	}
	if a.cfg.RenderSnapshots {
		opts.Renderer = wayback.NewRenderer(a.cfg.ChromeBin, headers.Next().UserAgent, a.logger)
	}
	archive := wayback.NewClient(opts, headers, a.retry(), a.logger)

	var saver services.RecordSaver
	if a.store != nil {
		saver = a.store
	}
	return services.NewAnalyzer(a.resolver(headers), archive, saver, a.logger), nil
}
