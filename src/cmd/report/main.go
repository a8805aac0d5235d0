package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/config"
	"invoice-reminder/src/pkg/ingest"
	"invoice-reminder/src/pkg/ledger"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/session"
	"invoice-reminder/src/pkg/util"
)

/*
reportOptions controls which file is read and where output is written.
*/
type reportOptions struct {
	ConfigPath     string    `json:"config_path"`
	InputPath      string    `json:"input_path"`
	OutputPath     string    `json:"output_path"`
	AsOf           time.Time `json:"as_of"`
	MaxRows        int       `json:"max_rows"`
	ReportTitle    string    `json:"report_title"`
	CurrencySymbol string    `json:"currency_symbol"`
}

/*
main is the CLI entry point.

Example:

	go run ./src/cmd/report -input ./tmp/aged.csv -as-of 2024-03-01 -o ./tmp/aging.html
*/
func main() {
	options := parseFlags()

	tl.Log(tl.Notice, palette.BlueBold, "Generating aging report as of %s from '%s'", options.AsOf.Format("2006-01-02"), options.InputPath)

	file, openErr := os.Open(options.InputPath)
	xerr.QuitIfError(openErr, fmt.Sprintf("Unable to open file '%s'", options.InputPath))
	defer file.Close()

	upload, e := session.Load(filepath.Base(options.InputPath), file, ingest.Cfg.ChunkSize)
	e.QuitIf(xerr.ErrorTypeError)

	portfolio := ledger.Aggregate(upload.Result.Rows, options.AsOf)
	report := buildAgingReport(options, upload, portfolio)
	htmlText := renderHTML(report)

	writeErr := os.WriteFile(options.OutputPath, []byte(htmlText), 0o644)
	xerr.QuitIfError(writeErr, "write HTML report file")

	tl.Log(tl.Info1, palette.Green, "Saved report to '%s'", options.OutputPath)
}

/*
parseFlags parses CLI flags and returns validated reportOptions.

Defaults:
- as of today (UTC)
- output path: ./tmp/aging-YYYY-MM-DD.html
*/
func parseFlags() reportOptions {
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	inputFlag := flag.String("input", "", "Receivables export (.csv or .xlsx)")
	asOfFlag := flag.String("as-of", "", "Date to age against, YYYY-MM-DD (default: today)")
	outputFlag := flag.String("o", "", "Output HTML path (default: ./tmp/aging-YYYY-MM-DD.html)")
	maxRowsFlag := flag.Int("max-rows", 10, "Maximum customer rows before grouping remainder into 'Other'")
	titleFlag := flag.String("title", "", "Report title (default: Receivables aging, <brand>)")

	flag.Parse()
	config.InitializeConfig(*configPath)
	ingest.InitializeConfig(config.Section[ingest.Config]("ingest"))
	reminder.InitializeConfig(config.Section[reminder.Config]("reminder"))

	util.RequiredFlag(inputFlag, "input")
	util.EnsureFlags()

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		parsed, ok := ledger.ParseDueDate(*asOfFlag)
		if !ok {
			tl.Log(tl.Warning, palette.PurpleBright, "Invalid as-of date '%s'; using today", *asOfFlag)
		} else {
			asOf = parsed
		}
	}

	outputPath := *outputFlag
	if outputPath == "" {
		outputPath = fmt.Sprintf("./tmp/aging-%s.html", asOf.Format("2006-01-02"))
	}

	reportTitle := *titleFlag
	if reportTitle == "" {
		reportTitle = "Receivables aging"
		if reminder.Cfg.Brand != "" {
			reportTitle += ", " + reminder.Cfg.Brand
		}
	}

	return reportOptions{
		ConfigPath:     *configPath,
		InputPath:      *inputFlag,
		OutputPath:     outputPath,
		AsOf:           asOf,
		MaxRows:        *maxRowsFlag,
		ReportTitle:    reportTitle,
		CurrencySymbol: reminder.Cfg.CurrencySymbol,
	}
}
