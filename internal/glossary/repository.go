package glossary

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence operations for glossary entries.
type Repository interface {
	GetByTerm(ctx context.Context, term string) (*Entry, error)
	CreateOrUpdate(ctx context.Context, entry *Entry) error
	ListEntries(ctx context.Context) ([]Entry, error)
	SetPublishedURL(ctx context.Context, entry *Entry, url string) error
}

// GormRepository persists entries using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(conn *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if conn == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: conn, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// GetByTerm returns the earliest-created entry for the provided term or nil when not found.
func (r *GormRepository) GetByTerm(ctx context.Context, term string) (*Entry, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return nil, eris.New("term is required")
	}

	var entry Entry
	err := r.db.WithContext(ctx).
		Where("term = ?", trimmed).
		First(&entry).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"term": trimmed}, err, "fetching entry by term")
		return nil, eris.Wrapf(err, "fetching entry by term: %s", trimmed)
	}

	return &entry, nil
}

// CreateOrUpdate stores the entry, inserting or updating the row as needed.
// The slug is recomputed from the term on every save.
func (r *GormRepository) CreateOrUpdate(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return eris.New("entry is nil")
	}

	if strings.TrimSpace(entry.Term) == "" {
		return eris.New("entry term is required")
	}

	entry.Term = strings.TrimSpace(entry.Term)
	entry.Slug = Slugify(entry.Term)

	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		r.logError(logrus.Fields{"term": entry.Term}, err, "saving entry")
		return eris.Wrapf(err, "saving entry: %s", entry.Term)
	}

	return nil
}

// ListEntries returns every entry ordered by term.
func (r *GormRepository) ListEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	if err := r.db.WithContext(ctx).Order("term ASC").Find(&entries).Error; err != nil {
		r.logError(nil, err, "listing entries")
		return nil, eris.Wrap(err, "listing entries")
	}

	return entries, nil
}

// SetPublishedURL persists the publish URL onto the stored entry.
func (r *GormRepository) SetPublishedURL(ctx context.Context, entry *Entry, url string) error {
	if entry == nil {
		return eris.New("entry is nil")
	}
	if entry.ID == 0 {
		return eris.New("entry has not been persisted")
	}

	if err := r.db.WithContext(ctx).Model(entry).Update("published_url", url).Error; err != nil {
		r.logError(logrus.Fields{"term": entry.Term}, err, "updating published url")
		return eris.Wrapf(err, "updating published url for entry: %s", entry.Term)
	}

	return nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	logEntry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		logEntry = logEntry.WithFields(fields)
	}
	logEntry.Error(message)
}
