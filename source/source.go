// Package source reads well records from a SQL store.
package source

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

// SQLSource returns table rows as maps keyed by column name.
type SQLSource struct {
	db     *gorm.DB
	logger log.Logger
}

// Open connects to dsn. Only the "sqlite" driver is supported.
func Open(driver, dsn string) (*SQLSource, error) {
	if driver != "sqlite" {
		return nil, errors.NewValidationError("source.driver", "unsupported driver", driver)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dsn)
	}
	return New(db), nil
}

// New wraps an existing connection.
func New(db *gorm.DB) *SQLSource {
	return &SQLSource{db: db, logger: log.GetLoggerWithName("source")}
}

// DB exposes the underlying connection.
func (s *SQLSource) DB() *gorm.DB { return s.db }

// Rows reads columns of every row of table. All columns are read when
// columns is empty. A column missing from the table is a MissingColumns
// error.
func (s *SQLSource) Rows(ctx context.Context, table string, columns []string) ([]map[string]any, error) {
	m := s.db.Migrator()
	if !m.HasTable(table) {
		return nil, errors.NewValueError("SQLSource.Rows", "table "+table+" does not exist")
	}
	var missing []string
	for _, c := range columns {
		if !m.HasColumn(table, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumnsError("SQLSource.Rows", missing)
	}

	q := s.db.WithContext(ctx).Table(table)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	var rows []map[string]any
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "read %s", table)
	}
	s.logger.Debug("Rows read", "table", table, log.SamplesKey, len(rows))
	return rows, nil
}

// Close releases the connection pool.
func (s *SQLSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
