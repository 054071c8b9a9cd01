package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitefinder",
	Short: "Resolve company names to official websites and LinkedIn pages",
	Long: `sitefinder takes lists of company names and finds their official
websites through a chain of search backends (Google Custom Search,
browser-driven Google, DuckDuckGo), ranks the candidates against the
company name, and writes the winners to CSV as they land. It also
scrapes raw search hits for companies the API pass missed and looks up
LinkedIn company pages for known websites.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
