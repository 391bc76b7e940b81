package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/zykor/platform/pkg/backfill"
	"github.com/zykor/platform/pkg/common/config"
	"github.com/zykor/platform/pkg/common/database"
	"github.com/zykor/platform/pkg/common/kafka"
	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/contahub"
	"github.com/zykor/platform/pkg/loader"
	"github.com/zykor/platform/pkg/sympla"
)

const usage = `usage:
  backfill full <start> <end>            replay all reports for a date range
  backfill month <year> <month>          replay all reports for a month
  backfill report <type> <year> <month>  replay one report type for a month
  backfill collect <start> <end>         capture raw payloads for a date range
  backfill tickets <start> <end>         sync ticketing data for a date range

dates are YYYY-MM-DD`

func main() {
	logger.Init()
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	models := append(contahub.Models(), sympla.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate pipeline tables")
	}

	catalog, err := contahub.LoadCatalog(cfg.ReportCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load report catalog")
	}

	newDriver := func(producer *kafka.Producer) *backfill.Driver {
		client := contahub.NewClient(cfg.ContaHub())
		raw := contahub.NewRawRepository(db)
		ld := loader.New(loader.NewGormInserter(db), cfg.BatchPause)
		return backfill.NewDriver(client, raw, ld, catalog, producer, backfill.Options{
			BarID:       cfg.BarID,
			ReportPause: cfg.ReportPause,
			DatePause:   cfg.DatePause,
		})
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		start, end := requireRange(args)
		_, err = newDriver(nil).Run(ctx, start, end, nil)

	case "month":
		year, month := requireMonth(args)
		var start, end string
		start, end, err = backfill.MonthRange(year, month)
		if err == nil {
			_, err = newDriver(nil).Run(ctx, start, end, nil)
		}

	case "report":
		if len(args) != 3 {
			fail(usage)
		}
		var rt contahub.ReportType
		rt, err = contahub.ParseReportType(args[0])
		if err != nil {
			fail(err.Error())
		}
		year, month := requireMonth(args[1:])
		var start, end string
		start, end, err = backfill.MonthRange(year, month)
		if err == nil {
			_, err = newDriver(nil).Run(ctx, start, end, []contahub.ReportType{rt})
		}

	case "collect":
		start, end := requireRange(args)
		producer := kafka.NewProducer(cfg.CaptureTopic)
		defer producer.Close()
		_, err = newDriver(producer).Collect(ctx, start, end)

	case "tickets":
		start, end := requireRange(args)
		client := sympla.NewClient(cfg.Sympla())
		syncer := sympla.NewSyncer(client, db, cfg.BarID, os.Getenv("SYMPLA_EVENT_FILTER"))
		_, err = syncer.Sync(ctx, start, end)

	default:
		fail(usage)
	}

	if err != nil {
		logger.Log.WithError(err).Fatal("run failed")
	}
}

func requireRange(args []string) (string, string) {
	if len(args) != 2 {
		fail(usage)
	}
	return args[0], args[1]
}

func requireMonth(args []string) (int, int) {
	if len(args) != 2 {
		fail(usage)
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		fail("invalid year: " + args[0])
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		fail("invalid month: " + args[1])
	}
	return year, month
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
