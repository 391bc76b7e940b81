package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/contahub"
	"github.com/zykor/platform/pkg/loader"
)

// Result reports the outcome of processing one raw payload.
type Result struct {
	Success               bool    `json:"success"`
	DataType              string  `json:"data_type"`
	RawDataID             uint    `json:"raw_data_id"`
	TotalRecords          int     `json:"total_records"`
	InsertedRecords       int     `json:"inserted_records"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	Error                 string  `json:"error,omitempty"`
}

// RawStore is the slice of the raw payload repository the processor uses.
type RawStore interface {
	Get(ctx context.Context, id uint) (*contahub.RawPayload, error)
	MarkProcessed(ctx context.Context, id uint) error
}

// Service turns stored raw payloads into normalized table rows.
type Service struct {
	raw     RawStore
	loader  *loader.Loader
	catalog contahub.Catalog
	cache   *ResultCache
	log     *logrus.Entry
}

func NewService(raw RawStore, ld *loader.Loader, catalog contahub.Catalog, cache *ResultCache) *Service {
	return &Service{
		raw:     raw,
		loader:  ld,
		catalog: catalog,
		cache:   cache,
		log:     logger.ForComponent("processor"),
	}
}

// Process normalizes and loads one raw payload. typeOverride, when
// non-empty, takes precedence over the payload's stored data_type.
//
// An already-processed payload is a successful no-op. An unsupported
// report type is an error and leaves the payload untouched. In every
// other case the payload is marked processed after the load loop, even
// when some chunks failed, so a bad batch cannot wedge the queue.
func (s *Service) Process(ctx context.Context, rawDataID uint, typeOverride string) Result {
	start := time.Now()

	payload, err := s.raw.Get(ctx, rawDataID)
	if err != nil {
		return s.failure(rawDataID, "", start, err)
	}

	typeName := payload.DataType
	if typeOverride != "" {
		typeName = typeOverride
	}

	rt, err := contahub.ParseReportType(typeName)
	if err != nil {
		return s.failure(rawDataID, typeName, start, err)
	}

	if payload.Processed {
		s.log.WithFields(logrus.Fields{
			"raw_data_id": rawDataID,
			"data_type":   string(rt),
		}).Info("Payload already processed, skipping")
		return Result{
			Success:               true,
			DataType:              string(rt),
			RawDataID:             rawDataID,
			ProcessingTimeSeconds: time.Since(start).Seconds(),
		}
	}

	spec, err := s.catalog.Spec(rt)
	if err != nil {
		return s.failure(rawDataID, string(rt), start, err)
	}

	list, err := contahub.DecodeList(payload.RawJSON)
	if err != nil {
		return s.failure(rawDataID, string(rt), start, err)
	}

	records, err := contahub.Normalize(rt, list, "")
	if err != nil {
		return s.failure(rawDataID, string(rt), start, err)
	}
	records = contahub.Enrich(records, rt, payload.BarID)

	var loadResult loader.Result
	if len(records) > 0 {
		loadResult, err = s.loader.Load(ctx, spec, records)
		if err != nil {
			// Context cancellation only; leave the payload unprocessed.
			return s.failure(rawDataID, string(rt), start, err)
		}
	}

	if err := s.raw.MarkProcessed(ctx, rawDataID); err != nil {
		return s.failure(rawDataID, string(rt), start, fmt.Errorf("mark processed: %w", err))
	}

	result := Result{
		Success:               true,
		DataType:              string(rt),
		RawDataID:             rawDataID,
		TotalRecords:          len(records),
		InsertedRecords:       loadResult.Inserted,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
	}
	if loadResult.Failed > 0 {
		result.Error = fmt.Sprintf("%d records failed to insert", loadResult.Failed)
	}

	s.log.WithFields(logrus.Fields{
		"raw_data_id": rawDataID,
		"data_type":   string(rt),
		"total":       result.TotalRecords,
		"inserted":    result.InsertedRecords,
		"conflicts":   loadResult.Conflicts,
		"failed":      loadResult.Failed,
		"seconds":     result.ProcessingTimeSeconds,
	}).Info("Payload processed")

	if s.cache != nil {
		s.cache.Put(ctx, result)
	}

	return result
}

func (s *Service) failure(rawDataID uint, dataType string, start time.Time, err error) Result {
	fields := logrus.Fields{"raw_data_id": rawDataID, "error": err.Error()}
	if dataType != "" {
		fields["data_type"] = dataType
	}
	s.log.WithFields(fields).Error("Processing failed")

	return Result{
		Success:               false,
		DataType:              dataType,
		RawDataID:             rawDataID,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
		Error:                 err.Error(),
	}
}

// IsNotFound reports whether a failure result stems from a missing payload.
func IsNotFound(err error) bool {
	return errors.Is(err, contahub.ErrRawNotFound)
}
