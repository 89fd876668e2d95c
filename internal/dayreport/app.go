// Package dayreport wires configuration, provider adapters and exporters
// into the application used by the CLI and the HTTP server.
package dayreport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Afrawles/dayreport/internal/config"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/fanout"
	"github.com/Afrawles/dayreport/internal/jira"
	"github.com/Afrawles/dayreport/internal/redmine"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/Afrawles/dayreport/internal/youtrack"
	"github.com/rs/zerolog"
)

// AllProviders selects every configured provider.
const AllProviders = "all"

type Application struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Generator *report.Generator
	Exporter  *report.Exporter
	Excel     *report.ExcelExporter
	CSV       *report.CSVExporter

	now func() time.Time
}

func New(cfg *config.Config, logger zerolog.Logger, creds report.CredentialSource) *Application {
	sources := Sources(cfg, logger)
	for _, src := range sources {
		logger.Info().Str("provider", src.Name()).Msg("source initialized")
	}

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Exporter: report.NewExporter(cfg.Output.Directory),
		Excel:    report.NewExcelExporter(cfg.Output.Directory),
		CSV:      report.NewCSVExporter(cfg.Output.Directory),
		now:      time.Now,
	}
	app.Generator = report.NewGenerator(creds, sources,
		report.WithClock(func() time.Time { return app.now() }),
		report.WithLocation(cfg.Location()),
		report.WithLogger(logger),
	)
	return app
}

// Sources builds an adapter for every provider with a configured URL. All of
// them share one HTTP client and one throttled worker pool.
func Sources(cfg *config.Config, logger zerolog.Logger) []report.Source {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	pool := fanout.NewPool(cfg.Workers, cfg.RPS)

	var sources []report.Source
	if cfg.Jira.URL != "" {
		sources = append(sources, jira.NewSource(jira.Config{
			URL:        cfg.Jira.URL,
			HTTPClient: httpClient,
			Pool:       pool,
			Logger:     logger,
		}))
	}
	if cfg.YouTrack.URL != "" {
		sources = append(sources, youtrack.NewSource(youtrack.Config{
			URL:         cfg.YouTrack.URL,
			StatusField: cfg.YouTrack.StatusField,
			HTTPClient:  httpClient,
			Logger:      logger,
		}))
	}
	if cfg.Redmine.URL != "" {
		sources = append(sources, redmine.NewSource(redmine.Config{
			URL:          cfg.Redmine.URL,
			CommentLimit: cfg.Redmine.CommentLimit,
			HTTPClient:   httpClient,
			Pool:         pool,
			Logger:       logger,
		}))
	}
	return sources
}

// Snapshot reports one provider, or every configured one for AllProviders.
// Provider failures are kept in the snapshot; only an unknown provider or an
// unknown user fails the call.
func (app *Application) Snapshot(ctx context.Context, user, provider string) (report.Snapshot, error) {
	providers := []string{provider}
	if provider == AllProviders {
		providers = app.Generator.Providers()
	}

	results := make([]report.ProviderReport, 0, len(providers))
	for _, name := range providers {
		r, err := app.Generator.Report(ctx, name, user)
		if errors.Is(err, report.ErrUnknownProvider) || errors.Is(err, credentials.ErrUnknownUser) {
			return report.Snapshot{}, err
		}
		pr := report.ProviderReport{Provider: name, Report: r}
		if err != nil {
			pr.Err = err.Error()
		}
		results = append(results, pr)
	}

	return report.NewSnapshot(user, app.now().In(app.Config.Location()), results), nil
}

// Export writes s in every configured output format and returns the files written.
func (app *Application) Export(s report.Snapshot) ([]string, error) {
	if err := os.MkdirAll(app.Config.Output.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fmt.Sprintf("report_%s_%s", s.User, s.Date.Format("20060102"))

	var written []string
	for _, format := range app.Config.Output.Format {
		filename := base + "." + format

		var err error
		switch format {
		case "json":
			err = app.Exporter.ExportJSON(s, filename)
		case "html":
			err = app.Exporter.ExportHTML(s, filename)
		case "xlsx":
			err = app.Excel.Export(s, filename)
		case "csv":
			err = app.CSV.Export(s, filename)
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("failed to export %s: %w", format, err)
		}

		app.Logger.Info().Str("format", format).Str("file", filename).Msg("report exported")
		written = append(written, filepath.Join(app.Config.Output.Directory, filename))
	}

	return written, nil
}
