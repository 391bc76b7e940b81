package loader

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zykor/platform/pkg/common/httpclient"
	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/contahub"
)

// Inserter writes one chunk of records into a destination table.
type Inserter interface {
	InsertBatch(ctx context.Context, table string, records []contahub.Record) error
}

// GormInserter is the production Inserter backed by Postgres.
type GormInserter struct {
	db *gorm.DB
}

func NewGormInserter(db *gorm.DB) *GormInserter {
	return &GormInserter{db: db}
}

func (g *GormInserter) InsertBatch(ctx context.Context, table string, records []contahub.Record) error {
	rows := make([]map[string]interface{}, len(records))
	for i, record := range records {
		rows[i] = record
	}
	return g.db.WithContext(ctx).Table(table).Create(rows).Error
}

// Result summarizes one load.
type Result struct {
	Inserted  int
	Conflicts int
	Failed    int
}

// Loader writes normalized records in fixed-size chunks with a pause
// between chunks so the database is not hammered during backfills.
type Loader struct {
	inserter Inserter
	pause    time.Duration
	log      *logrus.Entry
}

func New(inserter Inserter, pause time.Duration) *Loader {
	return &Loader{
		inserter: inserter,
		pause:    pause,
		log:      logger.ForComponent("loader"),
	}
}

// Load inserts records into the report's destination table, chunked by its
// batch size. A chunk that fails on a duplicate key is counted as a
// conflict and the load continues; any other chunk error fails only that
// chunk. The returned error is non-nil only when the context is cancelled.
func (l *Loader) Load(ctx context.Context, spec contahub.ReportSpec, records []contahub.Record) (Result, error) {
	var result Result

	size := spec.BatchSize
	if size <= 0 {
		size = 100
	}

	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if err := l.inserter.InsertBatch(ctx, spec.Table, chunk); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			if IsDuplicate(err) {
				result.Conflicts += len(chunk)
				l.log.WithFields(logrus.Fields{
					"table":   spec.Table,
					"records": len(chunk),
				}).Warn("Chunk already loaded, skipping")
				continue
			}
			result.Failed += len(chunk)
			l.log.WithFields(logrus.Fields{
				"table": spec.Table,
				"error": err.Error(),
			}).Error("Chunk insert failed")
			continue
		}
		result.Inserted += len(chunk)

		if end < len(records) {
			if err := httpclient.Pace(ctx, l.pause); err != nil {
				return result, err
			}
		}
	}

	l.log.WithFields(logrus.Fields{
		"table":     spec.Table,
		"inserted":  result.Inserted,
		"conflicts": result.Conflicts,
		"failed":    result.Failed,
	}).Info("Load finished")

	return result, nil
}

// IsDuplicate reports whether an insert failed on a unique constraint.
// Postgres signals these as SQLSTATE 23505.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
