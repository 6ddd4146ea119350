// Command salesdash-import loads a CSV dataset into the SQLite store and
// announces the new snapshot to running API instances.
package main

import (
	"flag"
	"os"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	applog "salesdash/internal/log"
	"salesdash/internal/records/csvfile"
	"salesdash/internal/services"
)

func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentImport)

	file := flag.String("file", cfg.DataFile, "CSV dataset to import")
	flag.Parse()

	if err := run(cfg, logger, *file); err != nil {
		logger.Error("Import failed", applog.FieldError, err, applog.FieldSource, *file)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *applog.Logger, file string) error {
	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}

	var publisher services.UpdatePublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, importing without notification", applog.FieldError, err)
		} else {
			publisher = client
		}
	}

	svc := services.NewImportService(repo, publisher, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close import service", applog.FieldError, err)
		}
	}()

	src := csvfile.New(file).WithComma(cfg.Delimiter())
	result, err := svc.Import(ctx, file, src)
	if err != nil {
		return err
	}

	logger.Info("Import complete",
		applog.FieldImportID, result.ImportID,
		applog.FieldRecords, result.Rows,
		"published", result.Published,
		"db_path", cfg.SQLiteDBPath)
	return nil
}
