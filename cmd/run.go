package main

import (
	"context"
	"fmt"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/fetcher"
	"github.com/sells-group/sitefinder/internal/output"
	"github.com/sells-group/sitefinder/internal/pipeline"
)

var (
	runInput    string
	runResults  string
	runNotFound string
	runOutput   string
	runWorkers  int
	runConc     int
	runHeadful  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape with browsers, then resolve the leftovers via search APIs",
	Long: `The full pipeline: a browser scrape pass records the top Google hit for
each company, then the companies the scrape could not place are re-read
from the not-found CSV and resolved through the API backends. Three CSVs
come out: scraped hits, the not-found leftovers, and ranked resolutions
for those leftovers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runWorkers > 0 {
			cfg.Scrape.Workers = runWorkers
		}
		if runConc > 0 {
			cfg.Resolve.Concurrency = runConc
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		list, err := fetcher.ReadCompanies(ctx, runInput, "")
		if err != nil {
			return err
		}

		resultsPath := runResults
		if resultsPath == "" {
			resultsPath = cfg.Scrape.Results
		}
		notFoundPath := runNotFound
		if notFoundPath == "" {
			notFoundPath = cfg.Scrape.NotFound
		}

		scrapeSummary, err := runScrapePass(ctx, list, resultsPath, notFoundPath)
		if err != nil {
			return err
		}
		fmt.Printf("Scrape pass: %d companies, %d with URLs, %d left over (%s)\n",
			scrapeSummary.Processed, scrapeSummary.Processed-scrapeSummary.NotFound,
			scrapeSummary.NotFound, scrapeSummary.Elapsed.Round(time.Second))

		if scrapeSummary.NotFound == 0 {
			fmt.Println("Nothing left for the API pass.")
			return nil
		}

		resolveSummary, err := runResolvePass(ctx, notFoundPath)
		if err != nil {
			return err
		}
		if resolveSummary == nil {
			return nil
		}

		fmt.Printf("API pass: %d companies, %d matched, %d not found, %d errors (%s)\n",
			resolveSummary.Processed, resolveSummary.Processed-resolveSummary.NotFound,
			resolveSummary.NotFound, resolveSummary.Failed,
			resolveSummary.Elapsed.Round(time.Second))
		fmt.Printf("Results: %s\nNot found: %s\nResolved: %s\n", resultsPath, notFoundPath, runOutput)
		return nil
	},
}

// runScrapePass drives the browser pool over the full input. Its env is
// closed before the API pass starts so Chrome is not held across both.
func runScrapePass(ctx context.Context, list *fetcher.CompanyList, resultsPath, notFoundPath string) (*pipeline.Summary, error) {
	headless := cfg.Browser.Headless && !runHeadful
	env, err := initSearchEnv(ctx, []string{"browser"}, headless)
	if err != nil {
		return nil, err
	}
	defer env.Close()

	results, err := output.NewScrapeWriter(resultsPath, list.Header)
	if err != nil {
		return nil, err
	}
	defer results.Close()

	notFound, err := output.NewNotFoundWriter(notFoundPath, list.Header)
	if err != nil {
		return nil, err
	}
	defer notFound.Close()

	scraper := pipeline.NewScraper(env.Chain, 1)
	return scraper.ScrapeAll(ctx, list.Companies, pipeline.ScrapeOptions{
		Workers:  cfg.Scrape.Workers,
		Results:  results,
		NotFound: notFound,
	})
}

// runResolvePass re-reads the not-found CSV and resolves it through the
// non-browser backends; the browser already had its shot at these. A
// nil summary means no API backend was available.
func runResolvePass(ctx context.Context, notFoundPath string) (*pipeline.Summary, error) {
	backends, err := chainBackends("")
	if err != nil {
		return nil, err
	}
	backends = slices.DeleteFunc(backends, func(name string) bool { return name == "browser" })
	if len(backends) == 0 {
		zap.L().Warn("no API backends configured, skipping resolve pass",
			zap.String("leftovers", notFoundPath))
		return nil, nil
	}

	list, err := fetcher.ReadCompanies(ctx, notFoundPath, "")
	if err != nil {
		return nil, err
	}

	env, err := initSearchEnv(ctx, backends, cfg.Browser.Headless)
	if err != nil {
		return nil, err
	}
	defer env.Close()

	w, err := output.NewResolutionWriter(runOutput)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	matcher, rules := newMatcher()
	resolver := pipeline.NewResolver(env.Chain, matcher, rules, cfg.Search.MaxResults)
	summary, err := resolver.ResolveAll(ctx, list.Companies, pipeline.ResolveOptions{
		Concurrency: cfg.Resolve.Concurrency,
		RunID:       uuid.NewString(),
		Results:     w,
		Store:       env.Store,
	})
	if err != nil {
		return nil, err
	}
	printUsage(env)
	return summary, nil
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "company list (txt, csv, or xlsx; local path or URL)")
	runCmd.Flags().StringVar(&runResults, "results", "", "scrape results CSV path (default from config)")
	runCmd.Flags().StringVar(&runNotFound, "notfound", "", "not-found CSV path (default from config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "api_results.csv", "API pass output CSV path")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "concurrent browser workers (default from config)")
	runCmd.Flags().IntVarP(&runConc, "concurrency", "c", 0, "concurrent API companies (default from config)")
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "show browser windows")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
