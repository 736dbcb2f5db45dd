package glossary

import (
	"context"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"glosspress/app/internal/docshost"
	"glosspress/app/internal/mdx"
)

// CacheStrategy controls whether an already published entry is reused.
type CacheStrategy int

const (
	// CacheFirst returns the stored record unchanged when a publish URL exists.
	CacheFirst CacheStrategy = iota
	// Refresh re-renders and re-publishes even when a publish URL exists.
	Refresh
)

// Service defines higher-level glossary operations built on top of the repository
// and the documentation-host publisher.
type Service interface {
	Publish(ctx context.Context, term string, strategy CacheStrategy) (*Entry, error)
	GetEntry(ctx context.Context, term string) (*Entry, error)
	ListEntries(ctx context.Context) ([]Entry, error)
	RenderDocument(ctx context.Context, term string) ([]byte, error)
}

type service struct {
	repo      Repository
	publisher docshost.Publisher
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// ErrEntryNotFound indicates no entry exists for the requested term.
var ErrEntryNotFound = eris.New("glossary entry not found")

// ErrContentMissing indicates the entry has no rendered body content yet.
// Publishing never proceeds without upstream content; the failure is not retryable.
var ErrContentMissing = eris.New("entry has no rendered content")

// ErrTakeawaysMissing indicates the entry has no populated takeaways structure.
var ErrTakeawaysMissing = eris.New("entry has no takeaways")

// NewService wires the glossary service with its dependencies.
func NewService(repo Repository, publisher docshost.Publisher, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("glossary repository is required")
	}
	if publisher == nil {
		return nil, eris.New("docs host publisher is required")
	}

	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		sentryHub: hub,
	}, nil
}

// Publish renders the entry for the term into an MDX document and opens a pull
// request against the documentation repository, persisting the resulting URL.
// With CacheFirst and an existing publish URL the stored record is returned
// unchanged and nothing is rendered or sent. Failures are never retried.
func (s *service) Publish(ctx context.Context, term string, strategy CacheStrategy) (*Entry, error) {
	entry, err := s.requireEntry(ctx, term)
	if err != nil {
		return nil, err
	}

	if entry.PublishedURL != "" && strategy == CacheFirst {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"term": entry.Term,
				"url":  entry.PublishedURL,
			}).Info("reusing existing publish url")
		}
		return entry, nil
	}

	content, err := RenderEntry(entry)
	if err != nil {
		s.recordError(logrus.Fields{"term": entry.Term}, err, "rendering publishable document")
		return nil, err
	}

	slug := Slugify(entry.Term)
	url, err := s.publisher.OpenPullRequest(ctx, docshost.PublishRequest{
		Branch:        slug,
		FileName:      slug + ".mdx",
		Content:       content,
		CommitMessage: fmt.Sprintf("Add glossary entry for %s", entry.Term),
		Title:         fmt.Sprintf("Glossary: %s", entry.Term),
		Body:          entry.Description,
	})
	if err != nil {
		s.recordError(logrus.Fields{"term": entry.Term, "branch": slug}, err, "opening publish pull request")
		return nil, eris.Wrapf(err, "publishing term: %s", entry.Term)
	}

	if err := s.repo.SetPublishedURL(ctx, entry, url); err != nil {
		s.recordError(logrus.Fields{"term": entry.Term, "url": url}, err, "persisting publish url")
		return nil, eris.Wrapf(err, "persisting publish url for term: %s", entry.Term)
	}
	entry.PublishedURL = url

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"term":   entry.Term,
			"branch": slug,
			"url":    url,
		}).Info("glossary entry published")
	}

	return entry, nil
}

func (s *service) GetEntry(ctx context.Context, term string) (*Entry, error) {
	return s.requireEntry(ctx, term)
}

func (s *service) ListEntries(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		s.recordError(nil, err, "listing glossary entries")
		return nil, eris.Wrap(err, "listing glossary entries")
	}

	return entries, nil
}

// RenderDocument renders the publishable document for the term without touching
// the documentation host.
func (s *service) RenderDocument(ctx context.Context, term string) ([]byte, error) {
	entry, err := s.requireEntry(ctx, term)
	if err != nil {
		return nil, err
	}

	content, err := RenderEntry(entry)
	if err != nil {
		s.recordError(logrus.Fields{"term": entry.Term}, err, "rendering publishable document")
		return nil, err
	}

	return content, nil
}

// RenderEntry renders the publishable MDX document for the entry, enforcing the
// same preconditions as Publish: the entry must carry rendered content and a
// populated takeaways structure.
func RenderEntry(entry *Entry) ([]byte, error) {
	if entry == nil {
		return nil, eris.New("entry is nil")
	}

	if err := checkPublishable(entry); err != nil {
		return nil, eris.Wrapf(err, "entry is not publishable: %s", entry.Term)
	}

	content, err := mdx.Render(documentFromEntry(entry))
	if err != nil {
		return nil, eris.Wrapf(err, "rendering document for term: %s", entry.Term)
	}

	return content, nil
}

func (s *service) requireEntry(ctx context.Context, term string) (*Entry, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return nil, eris.New("term is required")
	}

	entry, err := s.repo.GetByTerm(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"term": trimmed}, err, "retrieving entry from repository")
		return nil, eris.Wrapf(err, "retrieving entry: %s", trimmed)
	}
	if entry == nil {
		return nil, eris.Wrapf(ErrEntryNotFound, "term: %s", trimmed)
	}

	return entry, nil
}

func checkPublishable(entry *Entry) error {
	if strings.TrimSpace(entry.Content) == "" {
		return ErrContentMissing
	}
	if entry.Takeaways.Data().IsZero() {
		return ErrTakeawaysMissing
	}
	return nil
}

func documentFromEntry(entry *Entry) mdx.Document {
	takeaways := entry.Takeaways.Data()

	definitions := make([]mdx.Definition, 0, len(takeaways.Definitions))
	for _, definition := range takeaways.Definitions {
		definitions = append(definitions, mdx.Definition{
			Term:       definition.Term,
			Definition: definition.Definition,
		})
	}

	reading := make([]mdx.Reading, 0, len(takeaways.RecommendedReading))
	for _, ref := range takeaways.RecommendedReading {
		reading = append(reading, mdx.Reading{Title: ref.Title, URL: ref.URL})
	}

	faqs := make([]mdx.FAQ, 0, len(entry.FAQs))
	for _, faq := range entry.FAQs {
		faqs = append(faqs, mdx.FAQ{Question: faq.Question, Answer: faq.Answer})
	}

	return mdx.Document{
		Title:       entry.Title,
		Description: entry.Description,
		Heading:     entry.Heading,
		Term:        entry.Term,
		Categories:  entry.Categories,
		Takeaways: mdx.Takeaways{
			Summary:     takeaways.Summary,
			Definitions: definitions,
			Usage: mdx.Usage{
				Tags:        takeaways.Usage.Tags,
				Description: takeaways.Usage.Description,
			},
			BestPractices:      takeaways.BestPractices,
			RecommendedReading: reading,
			Trivia:             takeaways.Trivia,
		},
		FAQs:      faqs,
		UpdatedAt: entry.UpdatedAt.UTC(),
		Slug:      Slugify(entry.Term),
		Body:      entry.Content,
	}
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		logEntry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			logEntry = logEntry.WithFields(fields)
		}
		logEntry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
