package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/browser"
	"github.com/sells-group/sitefinder/internal/fetcher"
	"github.com/sells-group/sitefinder/internal/output"
	"github.com/sells-group/sitefinder/internal/pipeline"
	"github.com/sells-group/sitefinder/internal/proxy"
)

var (
	linkedinInput   string
	linkedinOutput  string
	linkedinProxies string
	linkedinWorkers int
	linkedinHeadful bool
)

var linkedinCmd = &cobra.Command{
	Use:   "linkedin",
	Short: "Find LinkedIn company pages for known websites",
	Long: `Reads websites from the input file's Website column (or one per line for
TXT), searches Google for each site's LinkedIn company page through
fresh browser sessions, and rotates through proxies when a session is
blocked or fails. Every website gets an output row recording the page
found (or Not Found / Error) and the proxy that produced it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkedinWorkers > 0 {
			cfg.LinkedIn.Workers = linkedinWorkers
		}
		if err := cfg.Validate("linkedin"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		websites, err := fetcher.ReadWebsites(ctx, linkedinInput, "")
		if err != nil {
			return err
		}
		if len(websites) == 0 {
			return eris.Errorf("linkedin: no websites found in %s", linkedinInput)
		}

		outputPath := linkedinOutput
		if outputPath == "" {
			outputPath = cfg.LinkedIn.Output
		}

		rotation := proxy.NewRotation(loadProxies(ctx), cfg.Proxy.PerAttempt)

		w, err := output.NewLinkedInWriter(outputPath)
		if err != nil {
			return err
		}
		defer w.Close()

		finder := pipeline.NewLinkedInFinder(nil, rotation, browser.FetchOpts{
			Headless:  cfg.Browser.Headless && !linkedinHeadful,
			UserAgent: cfg.Browser.UserAgent,
			NavWait:   time.Duration(cfg.Browser.NavWaitMS) * time.Millisecond,
			Timeout:   time.Duration(cfg.Browser.TimeoutSecs) * time.Second,
		})

		summary, err := finder.FindAll(ctx, websites, pipeline.LinkedInOptions{
			Workers: cfg.LinkedIn.Workers,
			Results: w,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Looked up %d websites (%d found, %d not found, %d errors) in %s\n",
			summary.Processed, summary.Succeeded, summary.NotFound, summary.Failed,
			summary.Elapsed.Round(time.Second))
		fmt.Printf("Results: %s\n", outputPath)
		return nil
	},
}

// loadProxies reads the configured proxy list. An unreachable or
// unreadable list degrades to direct connections only.
func loadProxies(ctx context.Context) []proxy.Proxy {
	source := linkedinProxies
	if source == "" {
		source = cfg.Proxy.Source
	}
	if source == "" {
		return nil
	}

	dl := fetcher.NewDownloader(fetcher.HTTPOptions{})
	rc, err := dl.Open(ctx, source)
	if err != nil {
		zap.L().Warn("proxy list unavailable, using direct connections only",
			zap.String("source", source), zap.Error(err))
		return nil
	}
	defer rc.Close()

	proxies, err := proxy.LoadCSV(rc)
	if err != nil {
		zap.L().Warn("proxy list unreadable, using direct connections only",
			zap.String("source", source), zap.Error(err))
		return nil
	}
	zap.L().Info("proxy list loaded", zap.String("source", source), zap.Int("proxies", len(proxies)))
	return proxies
}

func init() {
	linkedinCmd.Flags().StringVarP(&linkedinInput, "input", "i", "", "website list (txt, csv, or xlsx; local path or URL)")
	linkedinCmd.Flags().StringVarP(&linkedinOutput, "output", "o", "", "output CSV path (default from config)")
	linkedinCmd.Flags().StringVar(&linkedinProxies, "proxies", "", "proxy list CSV (local path or URL; default from config)")
	linkedinCmd.Flags().IntVarP(&linkedinWorkers, "workers", "w", 0, "concurrent websites (default from config)")
	linkedinCmd.Flags().BoolVar(&linkedinHeadful, "headful", false, "show browser windows")
	_ = linkedinCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(linkedinCmd)
}
