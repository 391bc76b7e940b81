package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/zykor/platform/pkg/common/httpclient"
	"github.com/zykor/platform/pkg/common/kafka"
	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/contahub"
	"github.com/zykor/platform/pkg/loader"
	"github.com/zykor/platform/pkg/processor"
)

// ReportTotals accumulates results for a single report type.
type ReportTotals struct {
	Reports   int
	Records   int
	Inserted  int
	Conflicts int
	Failed    int
	Errors    int
}

// Totals accumulates results across a whole run, overall and per report type.
type Totals struct {
	Dates     int
	Reports   int
	Records   int
	Inserted  int
	Conflicts int
	Failed    int
	Errors    int

	ByReport map[contahub.ReportType]ReportTotals
}

func (t *Totals) report(rt contahub.ReportType, delta ReportTotals) {
	t.Reports += delta.Reports
	t.Records += delta.Records
	t.Inserted += delta.Inserted
	t.Conflicts += delta.Conflicts
	t.Failed += delta.Failed
	t.Errors += delta.Errors

	if t.ByReport == nil {
		t.ByReport = map[contahub.ReportType]ReportTotals{}
	}
	sub := t.ByReport[rt]
	sub.Reports += delta.Reports
	sub.Records += delta.Records
	sub.Inserted += delta.Inserted
	sub.Conflicts += delta.Conflicts
	sub.Failed += delta.Failed
	sub.Errors += delta.Errors
	t.ByReport[rt] = sub
}

// RawStore is the slice of the raw payload repository the capture mode uses.
type RawStore interface {
	Exists(ctx context.Context, barID int, dataType, dataDate string) (bool, error)
	CreateIfAbsent(ctx context.Context, payload *contahub.RawPayload) (bool, error)
}

// Driver walks a date range and replays every report type for each date.
// Dates ascend and report types follow the fixed processing order, so a
// re-run after an interruption continues where the data stops.
type Driver struct {
	client   *contahub.Client
	raw      RawStore
	loader   *loader.Loader
	catalog  contahub.Catalog
	producer *kafka.Producer

	barID       int
	reportPause time.Duration
	datePause   time.Duration

	log *logrus.Entry
}

type Options struct {
	BarID       int
	ReportPause time.Duration
	DatePause   time.Duration
}

func NewDriver(client *contahub.Client, raw RawStore, ld *loader.Loader, catalog contahub.Catalog, producer *kafka.Producer, opts Options) *Driver {
	return &Driver{
		client:      client,
		raw:         raw,
		loader:      ld,
		catalog:     catalog,
		producer:    producer,
		barID:       opts.BarID,
		reportPause: opts.ReportPause,
		datePause:   opts.DatePause,
		log:         logger.ForComponent("backfill"),
	}
}

// DateRange expands [start, end] into ascending YYYY-MM-DD dates.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s before start date %s", end, start)
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

// MonthRange returns the first and last calendar day of a month, with the
// end capped at today so a current-month run does not ask for the future.
func MonthRange(year, month int) (string, string, error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	if today := time.Now().UTC().Truncate(24 * time.Hour); last.After(today) {
		last = today
	}
	return first.Format("2006-01-02"), last.Format("2006-01-02"), nil
}

// Run replays the given report types for every date in [start, end],
// fetching upstream and loading straight into the destination tables.
// Failures are isolated per date and report; the run always walks the
// whole range unless the context is cancelled.
func (d *Driver) Run(ctx context.Context, start, end string, types []contahub.ReportType) (Totals, error) {
	var totals Totals

	dates, err := DateRange(start, end)
	if err != nil {
		return totals, err
	}
	if len(types) == 0 {
		types = contahub.ProcessingOrder
	}

	if err := d.client.Login(ctx); err != nil {
		return totals, err
	}

	d.log.WithFields(logrus.Fields{
		"start":   start,
		"end":     end,
		"dates":   len(dates),
		"reports": len(types),
	}).Info("Backfill starting")

	for i, date := range dates {
		totals.Dates++

		for j, rt := range types {
			if err := d.replayReport(ctx, rt, date, &totals); err != nil {
				if ctx.Err() != nil {
					return totals, ctx.Err()
				}
				totals.report(rt, ReportTotals{Errors: 1})
				d.log.WithFields(logrus.Fields{
					"report": string(rt),
					"date":   date,
					"error":  err.Error(),
				}).Error("Report replay failed, continuing")
			}

			if j < len(types)-1 {
				if err := httpclient.Pace(ctx, d.reportPause); err != nil {
					return totals, err
				}
			}
		}

		if i < len(dates)-1 {
			if err := httpclient.Pace(ctx, d.datePause); err != nil {
				return totals, err
			}
		}
	}

	d.logSummary(totals)
	return totals, nil
}

func (d *Driver) replayReport(ctx context.Context, rt contahub.ReportType, date string, totals *Totals) error {
	spec, err := d.catalog.Spec(rt)
	if err != nil {
		return err
	}

	body, err := d.client.FetchReport(ctx, spec, rt, date)
	if err != nil {
		return err
	}

	list, err := contahub.DecodeList(body)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		totals.report(rt, ReportTotals{Reports: 1})
		d.log.WithFields(logrus.Fields{"report": string(rt), "date": date}).Debug("No rows for date")
		return nil
	}

	records, err := contahub.Normalize(rt, list, date)
	if err != nil {
		return err
	}
	records = contahub.Enrich(records, rt, d.barID)

	result, err := d.loader.Load(ctx, spec, records)
	if err != nil {
		return err
	}

	totals.report(rt, ReportTotals{
		Reports:   1,
		Records:   len(records),
		Inserted:  result.Inserted,
		Conflicts: result.Conflicts,
		Failed:    result.Failed,
	})
	return nil
}

// Collect fetches and stores raw payloads without normalizing them,
// publishing a capture event per stored payload so the processor service
// picks them up. Dates that already have a payload for a report type are
// skipped.
func (d *Driver) Collect(ctx context.Context, start, end string) (Totals, error) {
	var totals Totals

	dates, err := DateRange(start, end)
	if err != nil {
		return totals, err
	}

	if err := d.client.Login(ctx); err != nil {
		return totals, err
	}

	for i, date := range dates {
		totals.Dates++

		for j, rt := range contahub.ProcessingOrder {
			if err := d.collectReport(ctx, rt, date, &totals); err != nil {
				if ctx.Err() != nil {
					return totals, ctx.Err()
				}
				totals.report(rt, ReportTotals{Errors: 1})
				d.log.WithFields(logrus.Fields{
					"report": string(rt),
					"date":   date,
					"error":  err.Error(),
				}).Error("Capture failed, continuing")
			}

			if j < len(contahub.ProcessingOrder)-1 {
				if err := httpclient.Pace(ctx, d.reportPause); err != nil {
					return totals, err
				}
			}
		}

		if i < len(dates)-1 {
			if err := httpclient.Pace(ctx, d.datePause); err != nil {
				return totals, err
			}
		}
	}

	d.logSummary(totals)
	return totals, nil
}

func (d *Driver) collectReport(ctx context.Context, rt contahub.ReportType, date string, totals *Totals) error {
	exists, err := d.raw.Exists(ctx, d.barID, string(rt), date)
	if err != nil {
		return err
	}
	if exists {
		d.log.WithFields(logrus.Fields{"report": string(rt), "date": date}).Debug("Payload already captured, skipping")
		return nil
	}

	spec, err := d.catalog.Spec(rt)
	if err != nil {
		return err
	}

	body, err := d.client.FetchReport(ctx, spec, rt, date)
	if err != nil {
		return err
	}

	list, err := contahub.DecodeList(body)
	if err != nil {
		return err
	}

	payload := &contahub.RawPayload{
		BarID:       d.barID,
		DataType:    string(rt),
		DataDate:    date,
		RawJSON:     datatypes.JSON(body),
		RecordCount: len(list),
	}

	created, err := d.raw.CreateIfAbsent(ctx, payload)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	totals.report(rt, ReportTotals{Reports: 1, Records: len(list)})

	if d.producer != nil {
		d.producer.PublishEvent(ctx, processor.EventRawCaptured, "backfill", map[string]interface{}{
			"raw_data_id":  payload.ID,
			"data_type":    string(rt),
			"data_date":    date,
			"bar_id":       d.barID,
			"record_count": len(list),
		})
	}

	return nil
}

func (d *Driver) logSummary(totals Totals) {
	for _, rt := range contahub.ProcessingOrder {
		sub, ok := totals.ByReport[rt]
		if !ok {
			continue
		}
		d.log.WithFields(logrus.Fields{
			"report":    string(rt),
			"reports":   sub.Reports,
			"records":   sub.Records,
			"inserted":  sub.Inserted,
			"conflicts": sub.Conflicts,
			"failed":    sub.Failed,
			"errors":    sub.Errors,
		}).Info("Report type totals")
	}
	d.log.WithFields(logrus.Fields{
		"dates":     totals.Dates,
		"reports":   totals.Reports,
		"records":   totals.Records,
		"inserted":  totals.Inserted,
		"conflicts": totals.Conflicts,
		"failed":    totals.Failed,
		"errors":    totals.Errors,
	}).Info("Run complete")
}
