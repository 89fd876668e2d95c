package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed "templates"
var templateFS embed.FS

// ProviderReport is one provider's outcome inside a Snapshot. Err is set
// instead of Report when the provider failed.
type ProviderReport struct {
	Provider string      `json:"provider"`
	Report   DailyReport `json:"report"`
	Err      string      `json:"error,omitempty"`
}

// Snapshot is what the exporters write: every requested provider plus the total.
type Snapshot struct {
	User      string           `json:"user"`
	Date      time.Time        `json:"date"`
	Providers []ProviderReport `json:"providers"`
	Total     DailyReport      `json:"total"`
}

// NewSnapshot totals the successful provider reports.
func NewSnapshot(user string, date time.Time, providers []ProviderReport) Snapshot {
	var ok []DailyReport
	for _, p := range providers {
		if p.Err == "" {
			ok = append(ok, p.Report)
		}
	}
	return Snapshot{User: user, Date: date, Providers: providers, Total: Merge(ok...)}
}

type Exporter struct {
	OutputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

func WriteJSON(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(s)
}

func (e *Exporter) ExportJSON(s Snapshot, filename string) error {
	data, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(e.OutputDir, filename), data, 0644)
}

func (e *Exporter) ExportHTML(s Snapshot, filename string) error {
	policy := bluemonday.UGCPolicy()
	funcMap := template.FuncMap{
		"title": ProviderTitle,
		"lines": func(text string) []template.HTML {
			var out []template.HTML
			for _, l := range strings.Split(text, "\n") {
				if strings.TrimSpace(l) != "" {
					out = append(out, template.HTML(policy.Sanitize(l)))
				}
			}
			return out
		},
	}
	tmpl, err := template.New("report.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	outputPath := filepath.Join(e.OutputDir, filename)
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, s); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	return nil
}

// ProviderTitle is the display form of a provider name.
func ProviderTitle(provider string) string {
	return cases.Title(language.English).String(provider)
}
