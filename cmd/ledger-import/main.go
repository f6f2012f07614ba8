package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"bookkeeper/internal/backend"
	"bookkeeper/internal/cli"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/trace"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentImporter)

	userID := flag.Int64("user", cfg.UserID, "ledger user id receiving the import")
	dir := flag.String("dir", "", "directory of CSV row-sets to import")
	sheet := flag.String("sheet", cfg.GoogleSpreadsheetID, "Google spreadsheet id to import from")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: ledger-import [-user id] [-dir path | -sheet id | file.csv ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg.GoogleSpreadsheetID = *sheet

	ctx, stop := cli.GracefulShutdown()
	defer stop()
	ctx, runID := trace.NewRun(ctx, trace.PrefixImport)
	logger.Info("Import started", applog.FieldRunID, runID, applog.FieldUserID, *userID)

	srcCfg, err := backend.FromAppConfig(cfg, flag.Args(), *dir)
	if err != nil {
		logger.Error("Invalid import source", applog.FieldError, err)
		os.Exit(2)
	}
	src, err := backend.NewFactory(logger.WithComponent(applog.ComponentSheets)).CreateSource(ctx, srcCfg)
	if err != nil {
		logger.Error("Failed to open import source", applog.FieldSource, srcCfg.Type.String(), applog.FieldError, err)
		flag.Usage()
		os.Exit(2)
	}

	repo := cli.InitSQLite(logger, cfg)
	svc := cli.NewLedgerService(logger, cfg, repo, cli.InitAMQP(logger, cfg), nil)

	res, err := svc.Import(ctx, *userID, src.Source)
	if err != nil {
		logger.Error("Import failed",
			applog.NewFields().WithUser(*userID).WithOperation(applog.OpImport).WithError(err).ToSlice()...)
		cli.CloseWithTimeout(logger, 5*time.Second, svc.Close)
		os.Exit(1)
	}

	fmt.Printf("imported %d items for user %d from %s\n", res.Items, *userID, src.Description)
	names := make([]string, 0, len(res.Created))
	for name := range res.Created {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  new category %-20s %s\n", name, res.Created[name])
	}

	cli.CloseWithTimeout(logger, 5*time.Second, svc.Close)
}
