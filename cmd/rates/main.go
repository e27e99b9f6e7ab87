// Command rates estimates per-tag sampling rates from raw record files
// or from an ingested database. It prints a table of interval statistics
// and estimated Hz, or renders the same data as an HTML chart with
// -html.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	_ "modernc.org/sqlite"

	"github.com/emotibit-data/biometric.report/internal/analysis"
	"github.com/emotibit-data/biometric.report/internal/db"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/report"
	"github.com/emotibit-data/biometric.report/internal/stream"
)

var (
	dbFile   = flag.String("db", "", "Read timestamps from this database instead of raw files")
	htmlPath = flag.String("html", "", "Write an HTML chart to this file instead of printing a table")
	asJSON   = flag.Bool("json", false, "Print rates as JSON instead of a table")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *dbFile == "" && flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rates [flags] <raw file> [<raw file> ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	byTag, err := collectTimestamps()
	if err != nil {
		log.Fatal(err)
	}

	rates := analysis.Rates(byTag)
	if len(rates) == 0 {
		log.Fatal("No records found")
	}

	switch {
	case *htmlPath != "":
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *htmlPath, err)
		}
		if err := report.RenderRateChart(f, rates); err != nil {
			log.Fatalf("Failed to render chart: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write %s: %v", *htmlPath, err)
		}
		log.Printf("wrote chart for %d tags to %s", len(rates), *htmlPath)

	case *asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rates); err != nil {
			log.Fatalf("Failed to write JSON: %v", err)
		}

	default:
		printTable(rates)
	}
}

// collectTimestamps gathers per-tag timestamp series from the database
// or by decoding the raw files on the command line.
func collectTimestamps() (map[string][]int64, error) {
	if *dbFile != "" {
		database, err := db.OpenDB(*dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()
		return database.TimestampsByTag()
	}

	var records []record.Record
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		recs, stats, err := stream.DecodeAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if stats.Skipped > 0 {
			log.Printf("%s: skipped %d malformed lines", path, stats.Skipped)
		}
		records = append(records, recs...)
	}
	return analysis.Collect(records), nil
}

func printTable(rates []analysis.TagRate) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tLABEL\tSAMPLES\tMEAN(ms)\tMEDIAN(ms)\tSTDEV(ms)\tEST(Hz)")
	for _, r := range rates {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			r.Tag, r.Label, r.Samples, r.MeanIntervalMS, r.MedianIntervalMS, r.StdevIntervalMS, r.EstimatedHz)
	}
	w.Flush()
}
