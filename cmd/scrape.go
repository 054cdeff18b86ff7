package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/config"
	"github.com/maxburton/firebird/internal/observability"
	"github.com/maxburton/firebird/internal/supervisor"
)

var (
	flagMailTo       string
	flagMailPassword string
	flagSkipMail     bool
	flagSkipSurvey   bool
)

func newScrapeCmd() *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a restaurant's menu, delivery fees and details",
		Long:  "Scrapes the restaurant at the given URL into info.txt, categories.csv and menu.json, then emails the results to the configured recipient.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			defer observability.Sync()

			cfg := config.Get()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			sup := supervisor.New(cfg, logger)
			if err := sup.Run(ctx, args[0]); err != nil {
				logger.Error("Scrape failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	scrapeCmd.Flags().StringVar(&flagMailTo, "to", "", "email address the results are sent to")
	scrapeCmd.Flags().StringVar(&flagMailPassword, "password", "", "SMTP password for the sending account (prefer FIREBIRD_MAIL_PASSWORD)")
	scrapeCmd.Flags().BoolVar(&flagSkipMail, "skip-mail", false, "skip sending the results email")
	scrapeCmd.Flags().BoolVar(&flagSkipSurvey, "skip-survey", false, "skip the per-area delivery fee survey")

	return scrapeCmd
}

// applyFlagOverrides lets scrape flags win over file and environment
// configuration.
func applyFlagOverrides(cfg *config.Config) {
	if flagMailTo != "" {
		cfg.Mail.To = flagMailTo
	}
	if flagMailPassword != "" {
		cfg.Mail.Password = flagMailPassword
	}
	if flagSkipMail {
		cfg.Mail.Enabled = false
	}
	if flagSkipSurvey {
		cfg.Scrape.SurveyDeliveryFees = false
	}
}
