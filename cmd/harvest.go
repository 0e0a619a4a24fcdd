package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bookharvest/bookharvest/internal/app"
	"github.com/bookharvest/bookharvest/internal/config"
	"github.com/bookharvest/bookharvest/internal/crawler"
	"github.com/bookharvest/bookharvest/internal/extract"
	collyfetcher "github.com/bookharvest/bookharvest/internal/fetcher/colly"
	"github.com/bookharvest/bookharvest/internal/logging"
)

func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Runs one crawl of the configured catalog",
		Long: `Walks the listing-page chain from crawler.base_url, extracts every item
detail page through a bounded worker pool, and streams the records into the
configured sink. The run always terminates with a report; per-item failures
are tallied, not fatal.`,
		RunE: runHarvest,
	}
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, "bookharvest")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer application.Close()

	retry := crawler.NewExponentialRetryPolicy(cfg.HTTP.MaxRetries, cfg.BackoffInitial(), cfg.BackoffMax())
	fetcher, err := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.RequestTimeout(),
		Parallelism: cfg.Crawler.Concurrency,
		Delay:       cfg.PolitenessDelay(),
	}, retry, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	engine := crawler.NewEngine(
		crawler.EngineConfig{
			SeedURL:         cfg.Crawler.BaseURL,
			Concurrency:     cfg.Crawler.Concurrency,
			MaxListingPages: cfg.Crawler.MaxListingPages,
			RunTimeout:      cfg.RunTimeout(),
		},
		fetcher,
		extract.HTMLParser{},
		extract.PageNavigator{},
		extract.ListingHarvester{},
		extract.DetailExtractor{},
		application.Sink(),
		logger,
	)

	report, err := engine.Run(cmd.Context())
	if err != nil {
		logger.Error("harvest failed", zap.String("run_id", report.RunID), zap.Error(err))
		return fmt.Errorf("run harvest: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report crawler.RunReport) {
	cmd.Printf("run %s: %s\n", report.RunID, report.State)
	cmd.Printf("  listing pages: %d\n", report.ListingPages)
	cmd.Printf("  succeeded: %d  skipped: %d  failed: %d\n",
		report.Succeeded, report.Skipped, report.Failed)
	if report.Partial {
		cmd.Println("  run hit its deadline; results are partial")
	}
	if len(report.UnreachableURLs) > 0 {
		cmd.Printf("  unreachable:\n    %s\n", strings.Join(report.UnreachableURLs, "\n    "))
	}
	cmd.Printf("  took: %s\n", report.Duration().Round(time.Millisecond))
}
