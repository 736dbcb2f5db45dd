package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"glosspress/app/internal/db"
	"glosspress/app/internal/glossary"
)

const (
	jsonContentType      = "application/json; charset=utf-8"
	errorFallbackMessage = "We couldn't process your request right now."
)

type publishInput struct {
	Term    string `path:"term"`
	Refresh bool   `query:"refresh"`
}

type publishOutput struct {
	Body publishView
}

type publishView struct {
	Term         string `json:"term"`
	Slug         string `json:"slug"`
	PublishedURL string `json:"published_url"`
}

type entryInput struct {
	Term string `path:"term"`
}

type entrySummary struct {
	Term         string `json:"term"`
	Slug         string `json:"slug"`
	PublishedURL string `json:"published_url,omitempty"`
}

type entriesOutput struct {
	Body struct {
		Entries []entrySummary `json:"entries"`
	}
}

type entryOutput struct {
	Body entryView
}

type entryView struct {
	Term         string             `json:"term"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Heading      string             `json:"heading"`
	Categories   []string           `json:"categories"`
	Takeaways    glossary.Takeaways `json:"takeaways"`
	FAQs         []glossary.FAQ     `json:"faqs"`
	Slug         string             `json:"slug"`
	Content      string             `json:"content"`
	PublishedURL string             `json:"published_url,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		DocsHost string `json:"docs_host"`
	}
}

func (s *Server) registerPublishRoute() {
	huma.Post(s.api, "/publish/{term}", s.publishHandler, func(op *huma.Operation) {
		op.Summary = "Publish a glossary entry"
	})
}

func (s *Server) registerEntriesRoute() {
	huma.Get(s.api, "/entries", s.entriesHandler, func(op *huma.Operation) {
		op.Summary = "List glossary entries"
	})
}

func (s *Server) registerEntryRoute() {
	huma.Get(s.api, "/entries/{term}", s.entryHandler, func(op *huma.Operation) {
		op.Summary = "Fetch a glossary entry"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/health", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
	// Alias for infrastructure that expects the kubernetes-style path.
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check alias"
		op.Hidden = true
	})
}

func (s *Server) publishHandler(ctx context.Context, input *publishInput) (*publishOutput, error) {
	term := strings.TrimSpace(input.Term)

	strategy := glossary.CacheFirst
	if input.Refresh {
		strategy = glossary.Refresh
	}

	entry, err := s.glossary.Publish(ctx, term, strategy)
	if err != nil {
		s.recordError(ctx, err, "publishing glossary entry", logrus.Fields{"term": term})
		return nil, classifyPublishError(err)
	}

	resp := &publishOutput{}
	resp.Body = publishView{
		Term:         entry.Term,
		Slug:         glossary.Slugify(entry.Term),
		PublishedURL: entry.PublishedURL,
	}

	return resp, nil
}

func (s *Server) entriesHandler(ctx context.Context, _ *struct{}) (*entriesOutput, error) {
	entries, err := s.glossary.ListEntries(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing glossary entries", nil)
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}

	resp := &entriesOutput{}
	resp.Body.Entries = make([]entrySummary, 0, len(entries))
	for _, entry := range entries {
		resp.Body.Entries = append(resp.Body.Entries, entrySummary{
			Term:         entry.Term,
			Slug:         entry.Slug,
			PublishedURL: entry.PublishedURL,
		})
	}

	return resp, nil
}

func (s *Server) entryHandler(ctx context.Context, input *entryInput) (*entryOutput, error) {
	term := strings.TrimSpace(input.Term)

	entry, err := s.glossary.GetEntry(ctx, term)
	if err != nil {
		if eris.Is(err, glossary.ErrEntryNotFound) {
			return nil, huma.Error404NotFound("no glossary entry exists for that term")
		}
		s.recordError(ctx, err, "loading glossary entry", logrus.Fields{"term": term})
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}

	resp := &entryOutput{}
	resp.Body = entryView{
		Term:         entry.Term,
		Title:        entry.Title,
		Description:  entry.Description,
		Heading:      entry.Heading,
		Categories:   entry.Categories,
		Takeaways:    entry.Takeaways.Data(),
		FAQs:         entry.FAQs,
		Slug:         entry.Slug,
		Content:      entry.Content,
		PublishedURL: entry.PublishedURL,
		UpdatedAt:    entry.UpdatedAt,
	}

	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.DocsHost = "unconfigured"
	if s.docsHost {
		resp.Body.DocsHost = "configured"
	}

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func classifyPublishError(err error) error {
	switch {
	case eris.Is(err, glossary.ErrEntryNotFound):
		return huma.Error404NotFound("no glossary entry exists for that term")
	case eris.Is(err, glossary.ErrContentMissing), eris.Is(err, glossary.ErrTakeawaysMissing):
		return huma.Error422UnprocessableEntity("the entry is missing generated content and cannot be published")
	case strings.Contains(err.Error(), "publishing term"):
		return huma.Error502BadGateway("the documentation host rejected the publish request")
	default:
		return huma.Error500InternalServerError(errorFallbackMessage)
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		logEntry := s.logger.WithField("error", err.Error())
		if fields != nil {
			logEntry = logEntry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			logEntry = logEntry.WithField("request_id", requestID)
		}
		logEntry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
