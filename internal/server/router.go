package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Afrawles/dayreport/internal/config"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Reporter is the part of report.Generator the endpoints need.
type Reporter interface {
	Jira(ctx context.Context, user string) (report.DailyReport, error)
	YouTrack(ctx context.Context, user string) (report.DailyReport, error)
	Redmine(ctx context.Context, user string) (report.DailyReport, error)
	Report(ctx context.Context, provider, user string) (report.DailyReport, error)
	All(ctx context.Context, user string) (report.DailyReport, map[string]error)
}

func NewRouter(cfg *config.Config, log zerolog.Logger, gen Reporter) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})

	h := NewHandlers(log, gen)

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api", h.RequireUser)
	api.GET("/reports", h.AllReports)
	api.GET("/reports/:provider", h.ProviderReport)

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
