package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Afrawles/dayreport/internal/config"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/dayreport"
	"github.com/Afrawles/dayreport/internal/logger"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/Afrawles/dayreport/internal/server"
	"github.com/spf13/cobra"
)

var (
	username        string
	output          string
	formats         string
	credentialsFile string
	jiraToken       string
	jiraUsername    string
	youTrackToken   string
	redmineToken    string
	reportDate      string
	httpAddr        string
)

var rootCmd = &cobra.Command{
	Use:          "dayreport",
	Short:        "Generate daily work reports from Jira, YouTrack and Redmine",
	Long:         `DayReport collects today's logged work from issue trackers and renders it as report lines with a total.`,
	SilenceUsage: true,
}

var reportCmd = &cobra.Command{
	Use:       "report [jira|youtrack|redmine|all]",
	Short:     "Print today's report for one provider or all of them",
	Long:      `Prints the report as JSON on stdout. With --output, also writes it in every --format to that directory.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{report.ProviderJira, report.ProviderYouTrack, report.ProviderRedmine, dayreport.AllProviders},
	RunE:      generateReport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP",
	Long:  `Serves GET /api/reports/:provider and GET /api/reports for the user named in the X-User header.`,
	RunE:  serve,
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(reportCmd, serveCmd)

	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", "", "Credentials YAML file (default $CREDENTIALS_FILE)")

	reportCmd.Flags().StringVarP(&username, "user", "u", "", "User to report for (default $USER)")
	reportCmd.Flags().StringVarP(&output, "output", "o", "", "Also write the report files to this directory")
	reportCmd.Flags().StringVarP(&formats, "format", "f", "", "Comma-separated file formats: json, html, xlsx, csv (default $OUTPUT_FORMAT)")

	// tokens; any of these switches from the credentials file to one-off credentials
	reportCmd.Flags().StringVar(&jiraToken, "jira-token", "", "Jira API token ($JIRA_API_TOKEN)")
	reportCmd.Flags().StringVar(&jiraUsername, "jira-username", "", "Jira username ($JIRA_USERNAME)")
	reportCmd.Flags().StringVar(&youTrackToken, "youtrack-token", "", "YouTrack permanent token ($YOUTRACK_API_TOKEN)")
	reportCmd.Flags().StringVar(&redmineToken, "redmine-token", "", "Redmine API key ($REDMINE_API_TOKEN)")
	reportCmd.Flags().StringVar(&reportDate, "report-date", "", "Redmine report day, YYYY-MM-DD ($REPORT_DATE)")

	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "Listen address (default $HTTP_ADDR)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if credentialsFile != "" {
		cfg.CredentialsFile = credentialsFile
	}
	if formats != "" {
		cfg.Output.Format = parseCommaList(formats)
	}
	if output != "" {
		cfg.Output.Directory = output
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func generateReport(cmd *cobra.Command, args []string) error {
	provider := dayreport.AllProviders
	if len(args) == 1 {
		provider = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	creds, user, err := reportCredentials(cfg)
	if err != nil {
		return err
	}
	if user == "" {
		return fmt.Errorf("user is required, use --user")
	}

	app := dayreport.New(cfg, log, creds)

	bar := newSpinner(fmt.Sprintf("Fetching %s worklogs", provider))
	snapshot, err := app.Snapshot(cmd.Context(), user, provider)
	finishBar(bar)
	if err != nil {
		return err
	}

	if err := report.WriteJSON(cmd.OutOrStdout(), snapshot); err != nil {
		return err
	}

	if output != "" {
		files, err := app.Export(snapshot)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  -> %s\n", f)
		}
	}

	for _, p := range snapshot.Providers {
		if p.Err != "" {
			return fmt.Errorf("%s failed: %s", p.Provider, p.Err)
		}
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	store, err := credentials.LoadFile(cfg.CredentialsFile)
	if err != nil {
		return err
	}
	if err := store.Watch(cmd.Context(), cfg.CredentialsFile, log); err != nil {
		log.Warn().Err(err).Msg("credentials will not be reloaded on change")
	}

	app := dayreport.New(cfg, log, store)
	router := server.NewRouter(cfg, log, app.Generator)

	return server.Run(cmd.Context(), cfg.HTTPAddr, router, log)
}
