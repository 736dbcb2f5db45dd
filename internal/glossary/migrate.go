package glossary

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the glossary schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger) error {
	if conn == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "glossary.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying glossary schema")
	}

	if err := conn.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("glossary schema migration failed")
		}
		return eris.Wrap(err, "auto migrating glossary schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("glossary schema migration complete")
	}

	return nil
}
