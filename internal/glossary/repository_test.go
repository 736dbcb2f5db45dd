package glossary

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"glosspress/app/internal/db"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "glossary.db")
	conn, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("opening database failed: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(conn); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	if err := Migrate(context.Background(), conn, silentLogger()); err != nil {
		t.Fatalf("migrating schema failed: %v", err)
	}

	repo, err := NewRepository(conn, silentLogger())
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetByTermReturnsNilForMissingEntry(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	entry, err := repo.GetByTerm(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByTerm returned error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry for missing term, got %#v", entry)
	}
}

func TestCreateOrUpdateRoundTrip(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	original := &Entry{
		Term:        " Customer Auth ",
		Title:       "Customer Auth",
		Description: "How customers authenticate.",
		Heading:     "What is Customer Auth?",
		Categories:  datatypes.NewJSONSlice([]string{"security", "identity"}),
		Takeaways: datatypes.NewJSONType(Takeaways{
			Summary:       "Verify who a customer is before granting access.",
			BestPractices: []string{"Rotate credentials"},
		}),
		FAQs: datatypes.NewJSONSlice([]FAQ{
			{Question: "Is it required?", Answer: "Yes."},
		}),
		Content: "## Overview\n",
	}
	if err := repo.CreateOrUpdate(ctx, original); err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}

	if original.Term != "Customer Auth" {
		t.Fatalf("expected term trimmed to 'Customer Auth', got %q", original.Term)
	}
	if original.Slug != "customer-auth" {
		t.Fatalf("expected slug 'customer-auth', got %q", original.Slug)
	}

	stored, err := repo.GetByTerm(ctx, "Customer Auth")
	if err != nil {
		t.Fatalf("GetByTerm returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored entry to be present")
	}
	if stored.Title != "Customer Auth" {
		t.Fatalf("expected title to be preserved, got %q", stored.Title)
	}
	if len(stored.Categories) != 2 || stored.Categories[0] != "security" {
		t.Fatalf("expected categories to round-trip, got %#v", stored.Categories)
	}
	if stored.Takeaways.Data().Summary == "" {
		t.Fatalf("expected takeaways summary to round-trip")
	}
	if len(stored.FAQs) != 1 || stored.FAQs[0].Question != "Is it required?" {
		t.Fatalf("expected faqs to round-trip, got %#v", stored.FAQs)
	}
	if stored.PublishedURL != "" {
		t.Fatalf("expected no publish url on a fresh entry, got %q", stored.PublishedURL)
	}
}

func TestSetPublishedURLPersists(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	entry := &Entry{Term: "Webhooks", Content: "body"}
	if err := repo.CreateOrUpdate(ctx, entry); err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}

	url := "https://github.com/acme/docs/pull/42"
	if err := repo.SetPublishedURL(ctx, entry, url); err != nil {
		t.Fatalf("SetPublishedURL returned error: %v", err)
	}

	stored, err := repo.GetByTerm(ctx, "Webhooks")
	if err != nil {
		t.Fatalf("GetByTerm returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored entry to be present")
	}
	if stored.PublishedURL != url {
		t.Fatalf("expected publish url %q, got %q", url, stored.PublishedURL)
	}
}

func TestSetPublishedURLRequiresPersistedEntry(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	err := repo.SetPublishedURL(context.Background(), &Entry{Term: "Ghost"}, "https://example.com")
	if err == nil {
		t.Fatalf("expected error for unpersisted entry")
	}
}

func TestListEntriesReturnsAlphabeticalOrder(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	terms := []string{"Webhooks", "API Gateway", "Rate Limiting"}
	for _, term := range terms {
		entry := &Entry{Term: term, Content: "body"}
		if err := repo.CreateOrUpdate(ctx, entry); err != nil {
			t.Fatalf("CreateOrUpdate returned error: %v", err)
		}
	}

	entries, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	expected := []string{"API Gateway", "Rate Limiting", "Webhooks"}
	for i, term := range expected {
		if entries[i].Term != term {
			t.Fatalf("expected entry %d to be %q, got %q", i, term, entries[i].Term)
		}
	}
}
