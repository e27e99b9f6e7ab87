// Command parse converts raw record files into parsed output: flat CSV
// or JSONL on a file or stdout, or the per-device directory tree
// (<out>/<uid>/<tag>/<yyyymmdd>.csv). Malformed lines are skipped and
// reported on stderr.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/emotibit-data/biometric.report/internal/fsutil"
	"github.com/emotibit-data/biometric.report/internal/output"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/stream"
	"github.com/emotibit-data/biometric.report/internal/timeutil"
)

var (
	outPath = flag.String("o", "", "Output file (default stdout; with -tree, the tree root directory)")
	format  = flag.String("format", "csv", "Output format: csv or jsonl")
	tree    = flag.Bool("tree", false, "Write a per-tag directory tree instead of a flat file")
	uid     = flag.String("uid", "", "Device identifier for the tree layout (required with -tree)")
	strict  = flag.Bool("strict", false, "Abort on the first malformed line instead of skipping")
)

type recordWriter interface {
	WriteRecord(record.Record) error
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: parse [flags] <raw file> [<raw file> ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	w, cleanup, err := openWriter()
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}

	var total stream.Stats
	for _, path := range flag.Args() {
		stats, err := parseFile(path, w)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		total.Lines += stats.Lines
		total.Decoded += stats.Decoded
		total.Headers += stats.Headers
		total.Skipped += stats.Skipped
	}

	if err := cleanup(); err != nil {
		log.Fatalf("Failed to finalize output: %v", err)
	}
	log.Printf("%d lines read, %d records written, %d skipped", total.Lines, total.Decoded, total.Skipped)
}

// openWriter builds the record sink selected by the flags and returns
// it with a finalizer that flushes and closes it.
func openWriter() (recordWriter, func() error, error) {
	if *tree {
		if *uid == "" {
			return nil, nil, fmt.Errorf("-tree requires -uid")
		}
		root := *outPath
		if root == "" {
			root = "parsed"
		}
		t, err := output.NewTree(fsutil.OSFileSystem{}, timeutil.RealClock{}, root, *uid)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	}

	var out io.Writer = os.Stdout
	finalize := func() error { return nil }
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return nil, nil, err
		}
		out = f
		finalize = f.Close
	}

	switch *format {
	case "csv":
		w := output.NewCSVWriter(out, timeutil.RealClock{})
		return w, func() error {
			if err := w.Flush(); err != nil {
				return err
			}
			return finalize()
		}, nil
	case "jsonl":
		return output.NewJSONLWriter(out), finalize, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q: must be csv or jsonl", *format)
	}
}

func parseFile(path string, w recordWriter) (stream.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return stream.Stats{}, err
	}
	defer f.Close()

	d := stream.NewDecoder(f)
	d.SkipInvalid = !*strict
	d.OnError = func(lineNo int, line string, err error) {
		log.Printf("%s:%d: skipping (%s): %v", path, lineNo, stream.Reason(err), err)
	}

	for {
		rec, err := d.Next()
		if err == io.EOF {
			return d.Stats(), nil
		}
		if err != nil {
			return d.Stats(), err
		}
		if err := w.WriteRecord(rec); err != nil {
			return d.Stats(), err
		}
	}
}
