package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Afrawles/dayreport/internal/apperr"
	"github.com/Afrawles/dayreport/internal/credentials"
	"github.com/Afrawles/dayreport/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	userHeader = "X-User"
	userKey    = "user"
)

type Handlers struct {
	log zerolog.Logger
	gen Reporter
}

func NewHandlers(log zerolog.Logger, gen Reporter) *Handlers {
	return &Handlers{log: log, gen: gen}
}

// errorBody is the field-scoped error shape: errors maps a credential field
// to the messages about it.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// allResponse is the merged report of every provider that succeeded plus
// the failures of the others.
type allResponse struct {
	report.DailyReport
	Failed map[string]errorBody `json:"failed,omitempty"`
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RequireUser takes the caller identity set by the upstream authenticator.
func (h *Handlers) RequireUser(c *gin.Context) {
	user := strings.TrimSpace(c.GetHeader(userHeader))
	if user == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "missing " + userHeader + " header"})
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func (h *Handlers) ProviderReport(c *gin.Context) {
	r, err := h.reportFor(c.Param("provider"))(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) AllReports(c *gin.Context) {
	r, errs := h.gen.All(c.Request.Context(), c.GetString(userKey))

	resp := allResponse{DailyReport: r}
	unknownUser := len(errs) > 0
	for provider, err := range errs {
		if !errors.Is(err, credentials.ErrUnknownUser) {
			unknownUser = false
		}
		if resp.Failed == nil {
			resp.Failed = make(map[string]errorBody, len(errs))
		}
		_, resp.Failed[provider] = errorResponse(err)
	}

	if unknownUser {
		c.JSON(http.StatusNotFound, errorBody{Message: credentials.ErrUnknownUser.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// reportFor picks the facade method for provider. Unknown names go through
// Report, which rejects them.
func (h *Handlers) reportFor(provider string) func(context.Context, string) (report.DailyReport, error) {
	switch provider {
	case report.ProviderJira:
		return h.gen.Jira
	case report.ProviderYouTrack:
		return h.gen.YouTrack
	case report.ProviderRedmine:
		return h.gen.Redmine
	}
	return func(ctx context.Context, user string) (report.DailyReport, error) {
		return h.gen.Report(ctx, provider, user)
	}
}

func errorResponse(err error) (int, errorBody) {
	switch {
	case errors.Is(err, report.ErrUnknownProvider), errors.Is(err, credentials.ErrUnknownUser):
		return http.StatusNotFound, errorBody{Message: err.Error()}
	}

	if e := apperr.As(err); e != nil {
		return http.StatusUnprocessableEntity, errorBody{
			Message: e.Message,
			Errors:  map[string][]string{e.Field: {e.Message}},
		}
	}

	return http.StatusInternalServerError, errorBody{Message: err.Error()}
}
