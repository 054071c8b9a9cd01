package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/sitefinder/internal/fetcher"
	"github.com/sells-group/sitefinder/internal/output"
	"github.com/sells-group/sitefinder/internal/pipeline"
)

var (
	scrapeInput    string
	scrapeResults  string
	scrapeNotFound string
	scrapeWorkers  int
	scrapeURLs     int
	scrapeHeadful  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape top Google hits for each company through real browsers",
	Long: `Drives a pool of Chrome sessions through Google, one query per company,
and records the top hit next to the original input columns. Companies
with no hits (or whose searches keep failing) land in the not-found CSV
with their input columns intact, ready to re-run or hand to resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapeWorkers > 0 {
			cfg.Scrape.Workers = scrapeWorkers
		}
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		list, err := fetcher.ReadCompanies(ctx, scrapeInput, "")
		if err != nil {
			return err
		}

		resultsPath := scrapeResults
		if resultsPath == "" {
			resultsPath = cfg.Scrape.Results
		}
		notFoundPath := scrapeNotFound
		if notFoundPath == "" {
			notFoundPath = cfg.Scrape.NotFound
		}

		headless := cfg.Browser.Headless && !scrapeHeadful
		env, err := initSearchEnv(ctx, []string{"browser"}, headless)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := output.NewScrapeWriter(resultsPath, list.Header)
		if err != nil {
			return err
		}
		defer results.Close()

		notFound, err := output.NewNotFoundWriter(notFoundPath, list.Header)
		if err != nil {
			return err
		}
		defer notFound.Close()

		scraper := pipeline.NewScraper(env.Chain, scrapeURLs)
		summary, err := scraper.ScrapeAll(ctx, list.Companies, pipeline.ScrapeOptions{
			Workers:  cfg.Scrape.Workers,
			Results:  results,
			NotFound: notFound,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Scraped %d companies (%d with URLs, %d without) in %s\n",
			summary.Processed, summary.Processed-summary.NotFound, summary.NotFound,
			summary.Elapsed.Round(time.Second))
		fmt.Printf("Results: %s\nNot found: %s\n", resultsPath, notFoundPath)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeInput, "input", "i", "", "company list (txt, csv, or xlsx; local path or URL)")
	scrapeCmd.Flags().StringVar(&scrapeResults, "results", "", "results CSV path (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeNotFound, "notfound", "", "not-found CSV path (default from config)")
	scrapeCmd.Flags().IntVarP(&scrapeWorkers, "workers", "w", 0, "concurrent browser workers (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeURLs, "urls", 1, "search hits to record per company")
	scrapeCmd.Flags().BoolVar(&scrapeHeadful, "headful", false, "show browser windows")
	_ = scrapeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scrapeCmd)
}
