package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/emotibit-data/biometric.report/internal/api"
	"github.com/emotibit-data/biometric.report/internal/db"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/session"
	"github.com/emotibit-data/biometric.report/internal/stream"
	"github.com/emotibit-data/biometric.report/internal/units"
	"github.com/emotibit-data/biometric.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbFile     = flag.String("db", "biometric.db", "Path to the SQLite database file")
	input      = flag.String("input", "", "Raw record file to ingest at startup ('-' for stdin)")
	outputUnit = flag.String("units", units.Celsius, "Temperature units for API responses (celsius, fahrenheit, kelvin)")
)

// checkpointEvery bounds how many records a session row can lag behind
// the records table during a live ingest.
const checkpointEvery = 500

func main() {
	flag.Parse()

	// Subcommands run before any server wiring.
	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "migrate":
			db.RunMigrateCommand(args[1:], *dbFile)
			return
		case "version":
			fmt.Printf("emotibit %s (%s) built %s\n", version.Version, version.GitSHA, version.BuildTime)
			return
		default:
			fmt.Printf("Unknown command: %s\n\n", args[0])
			fmt.Println("Commands: migrate, version")
			os.Exit(1)
		}
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*outputUnit) {
		log.Fatalf("Invalid units %q: must be one of %s", *outputUnit, units.GetValidUnitsString())
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Wait group for the HTTP server and ingest pipeline routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *input != "" {
		var in io.ReadCloser
		if *input == "-" {
			in = os.Stdin
		} else {
			in, err = os.Open(*input)
			if err != nil {
				log.Fatalf("Failed to open input file: %v", err)
			}
		}

		records := make(chan record.Record, 256)

		// decode routine reads raw lines off the input
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(records)
			defer in.Close()

			d := stream.NewDecoder(in)
			d.OnError = func(lineNo int, line string, err error) {
				log.Printf("skipping line %d (%s): %v", lineNo, stream.Reason(err), err)
			}
			if err := d.Run(ctx, records); err != nil && err != context.Canceled {
				log.Printf("decode routine failed: %v", err)
			}
			stats := d.Stats()
			log.Printf("ingest finished: %d lines, %d decoded, %d skipped", stats.Lines, stats.Decoded, stats.Skipped)
		}()

		// store routine assigns sessions and persists records
		wg.Add(1)
		go func() {
			defer wg.Done()
			storeRecords(ctx, database, records)
			log.Print("store routine terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, *outputUnit).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// storeRecords drains the decoded record channel into the database,
// tracking session boundaries as it goes. Session rows are checkpointed
// periodically and finalized when a session closes or the channel
// drains.
func storeRecords(ctx context.Context, database *db.DB, records <-chan record.Record) {
	tracker := session.NewTracker()
	tracker.OnClose = func(s session.Session) {
		if err := database.UpsertSession(s); err != nil {
			log.Printf("failed to store session %s: %v", s.ID, err)
		} else {
			log.Printf("closed session %s: %d records, %d dropped packets", s.ID, s.Records, s.DroppedPackets)
		}
	}

	sinceCheckpoint := 0
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				tracker.Flush()
				return
			}
			id := tracker.Observe(rec)
			if err := database.InsertRecord(id, rec); err != nil {
				log.Printf("failed to store record: %v", err)
				continue
			}
			if sinceCheckpoint++; sinceCheckpoint >= checkpointEvery {
				if s, ok := tracker.Current(); ok {
					if err := database.UpsertSession(s); err != nil {
						log.Printf("failed to checkpoint session %s: %v", s.ID, err)
					}
				}
				sinceCheckpoint = 0
			}
		case <-ctx.Done():
			tracker.Flush()
			return
		}
	}
}
