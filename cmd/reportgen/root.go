package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"propertyreport/config"
	"propertyreport/internal/database"
	"propertyreport/internal/geocoding"
	"propertyreport/internal/images"
	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/report"
	"propertyreport/internal/telegram"
)

// app carries the state shared by every subcommand.
type app struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "reportgen",
		Short: "Build property investment reports",
		Long: `reportgen turns a YAML description of a property into a paginated
investment report PDF, and exposes the steps behind it.

Quick start:
  reportgen sample ./demo                 # write demo input and photographs
  reportgen generate ./demo/sample.yaml   # build the PDF next to it`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "read settings from this .env file (default .env)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newGenerateCmd(a),
		newMetricsCmd(a),
		newClassifyCmd(a),
		newLookupCmd(a),
		newSampleCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.LoadConfig(files...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	if a.verbose {
		a.logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.CitiesFile != "" {
		if err := config.LoadCitiesFile(cfg.CitiesFile); err != nil {
			return fmt.Errorf("loading cities: %w", err)
		}
	}
	return nil
}

func (a *app) classifier() *images.Classifier {
	return images.NewClassifier(config.PlaceNames(a.cfg.PlaceNames...)...)
}

func (a *app) generator() *pipeline.Generator {
	opts := pipeline.Options{
		Brand: report.Brand{
			Title:    a.cfg.Brand.Title,
			Tagline:  a.cfg.Brand.Tagline,
			LogoPath: a.cfg.Brand.LogoPath,
		},
		Classifier: a.classifier(),
	}
	if a.cfg.Telegram.Enabled {
		tg := telegram.NewService(a.logger)
		tg.UpdateConfig(models.TelegramConfig{
			IsEnabled: true,
			BotToken:  a.cfg.Telegram.BotToken,
			ChatID:    a.cfg.Telegram.ChatID,
			APIURL:    a.cfg.Telegram.APIURL,
		})
		opts.Notifier = tg
	}
	return pipeline.NewGenerator(opts, a.logger)
}

// locator returns a lookup provider backed by the sqlite cache unless
// noCache is set. The returned func releases the cache.
func (a *app) locator(noCache bool) (*geocoding.Provider, func(), error) {
	var cache geocoding.Cache
	closer := func() {}
	if !noCache {
		store, err := database.NewStore(a.cfg.DBPath, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening lookup cache: %w", err)
		}
		cache = store
		closer = func() {
			if err := store.Close(); err != nil {
				a.logger.WithError(err).Warn("Failed to close lookup cache")
			}
		}
	}
	return geocoding.NewProvider(geocoding.OptionsFromConfig(a.cfg), cache, a.logger), closer, nil
}
