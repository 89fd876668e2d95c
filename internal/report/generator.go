package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Generator is the facade callers use: one report per provider, or all of
// them combined with failures kept per provider.
type Generator struct {
	sources map[string]Source
	order   []string
	creds   CredentialSource
	loc     *time.Location
	now     func() time.Time
	log     zerolog.Logger
}

type GeneratorOption func(*Generator)

// WithClock replaces the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) {
		if loc != nil {
			g.loc = loc
		}
	}
}

func WithLogger(log zerolog.Logger) GeneratorOption {
	return func(g *Generator) { g.log = log }
}

func NewGenerator(creds CredentialSource, sources []Source, opts ...GeneratorOption) *Generator {
	g := &Generator{
		sources: make(map[string]Source, len(sources)),
		creds:   creds,
		loc:     time.Local,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, src := range sources {
		if _, dup := g.sources[src.Name()]; dup {
			continue
		}
		g.sources[src.Name()] = src
		g.order = append(g.order, src.Name())
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Providers lists configured provider names in registration order.
func (g *Generator) Providers() []string {
	return append([]string(nil), g.order...)
}

// Report builds the DailyReport of one provider for user.
func (g *Generator) Report(ctx context.Context, provider, user string) (DailyReport, error) {
	src, ok := g.sources[provider]
	if !ok {
		return DailyReport{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	cred, err := g.creds.Credentials(ctx, user, provider)
	if err != nil {
		return DailyReport{}, err
	}

	now := g.now().In(g.loc)
	lines, err := src.Lines(ctx, cred, now)
	if err != nil {
		g.log.Error().Err(err).Str("provider", provider).Str("user", user).Msg("report failed")
		return DailyReport{}, err
	}

	r := Summarize(lines)
	g.log.Info().
		Str("provider", provider).
		Str("user", user).
		Int("lines", len(lines)).
		Int("hours", r.Hours).
		Int("minutes", r.Minutes).
		Msg("report generated")
	return r, nil
}

func (g *Generator) Jira(ctx context.Context, user string) (DailyReport, error) {
	return g.Report(ctx, ProviderJira, user)
}

func (g *Generator) YouTrack(ctx context.Context, user string) (DailyReport, error) {
	return g.Report(ctx, ProviderYouTrack, user)
}

func (g *Generator) Redmine(ctx context.Context, user string) (DailyReport, error) {
	return g.Report(ctx, ProviderRedmine, user)
}

// All reports every configured provider independently. Providers that fail
// are left out of the merged report and returned in errs.
func (g *Generator) All(ctx context.Context, user string) (DailyReport, map[string]error) {
	var reports []DailyReport
	errs := make(map[string]error)

	for _, name := range g.order {
		select {
		case <-ctx.Done():
			errs[name] = ctx.Err()
			continue
		default:
		}

		r, err := g.Report(ctx, name, user)
		if err != nil {
			errs[name] = err
			continue
		}
		reports = append(reports, r)
	}

	return Merge(reports...), errs
}
