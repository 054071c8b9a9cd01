package main

import (
	"fmt"
	"os/signal"
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
	resolveInput      string
	resolveOutput     string
	resolveBackend    string
	resolveConc       int
	resolveLimit      int
	resolveMaxResults int
	resolveNoCache    bool
	resolveDryRun     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve company names to official websites",
	Long: `Reads company names from a TXT, CSV, or XLSX file (local path or URL),
queries the search chain for each, ranks the hits against the name, and
appends one row per company to the output CSV. Rows land as companies
finish, so a killed run keeps everything resolved so far.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveConc > 0 {
			cfg.Resolve.Concurrency = resolveConc
		}
		if resolveMaxResults > 0 {
			cfg.Search.MaxResults = resolveMaxResults
		}
		if resolveNoCache {
			cfg.Search.Cache = false
		}
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		list, err := fetcher.ReadCompanies(ctx, resolveInput, "")
		if err != nil {
			return err
		}
		companies := list.Companies
		if resolveLimit > 0 && len(companies) > resolveLimit {
			companies = companies[:resolveLimit]
		}

		backends, err := chainBackends(resolveBackend)
		if err != nil {
			return err
		}

		if resolveDryRun {
			zap.L().Info("dry run, nothing resolved",
				zap.Int("companies", len(companies)),
				zap.Strings("backends", backends),
				zap.String("output", resolveOutput),
			)
			return nil
		}

		env, err := initSearchEnv(ctx, backends, cfg.Browser.Headless)
		if err != nil {
			return err
		}
		defer env.Close()

		w, err := output.NewResolutionWriter(resolveOutput)
		if err != nil {
			return err
		}
		defer w.Close()

		matcher, rules := newMatcher()
		resolver := pipeline.NewResolver(env.Chain, matcher, rules, cfg.Search.MaxResults)

		summary, err := resolver.ResolveAll(ctx, companies, pipeline.ResolveOptions{
			Concurrency: cfg.Resolve.Concurrency,
			RunID:       uuid.NewString(),
			Results:     w,
			Store:       env.Store,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Resolved %d companies (%d matched, %d not found, %d errors) in %s\n",
			summary.Processed, summary.Processed-summary.NotFound,
			summary.NotFound, summary.Failed, summary.Elapsed.Round(time.Second))
		printUsage(env)
		fmt.Printf("Results: %s\n", resolveOutput)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveInput, "input", "i", "", "company list (txt, csv, or xlsx; local path or URL)")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "api_results.csv", "output CSV path")
	resolveCmd.Flags().StringVar(&resolveBackend, "backend", "auto", "search backend: auto, cse, browser, or ddg")
	resolveCmd.Flags().IntVarP(&resolveConc, "concurrency", "c", 0, "concurrent companies (default from config)")
	resolveCmd.Flags().IntVar(&resolveLimit, "limit", 0, "resolve at most N companies (0 = all)")
	resolveCmd.Flags().IntVar(&resolveMaxResults, "max-results", 0, "search hits to rank per company (default from config)")
	resolveCmd.Flags().BoolVar(&resolveNoCache, "no-cache", false, "bypass the search cache")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "read the input and report what would run")
	_ = resolveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(resolveCmd)
}
