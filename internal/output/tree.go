package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"

	"github.com/emotibit-data/biometric.report/internal/fsutil"
	"github.com/emotibit-data/biometric.report/internal/record"
	"github.com/emotibit-data/biometric.report/internal/security"
	"github.com/emotibit-data/biometric.report/internal/timeutil"
)

// Tree writes parsed records into the pipeline layout
// <root>/<uid>/<type_tag>/<yyyymmdd>.csv, one file per tag per day.
// Files are appended to, with the header written when a file is first
// created. Not safe for concurrent use.
type Tree struct {
	fs    fsutil.FileSystem
	clock timeutil.Clock
	root  string
	uid   string

	open map[string]*treeFile
}

type treeFile struct {
	wc  io.WriteCloser
	csv *csv.Writer
}

// NewTree validates uid and returns a Tree writing under root.
func NewTree(fs fsutil.FileSystem, clock timeutil.Clock, root, uid string) (*Tree, error) {
	if err := security.SanitizePathComponent(uid); err != nil {
		return nil, fmt.Errorf("invalid uid: %w", err)
	}
	return &Tree{
		fs:    fs,
		clock: clock,
		root:  root,
		uid:   uid,
		open:  make(map[string]*treeFile),
	}, nil
}

// WriteRecord appends rec to the file for its tag and the current date.
// The tag comes off the wire, so it is validated before becoming a
// directory name.
func (t *Tree) WriteRecord(rec record.Record) error {
	if err := security.SanitizePathComponent(rec.TypeTag); err != nil {
		return fmt.Errorf("invalid type tag: %w", err)
	}

	day := t.clock.Now().UTC().Format("20060102")
	path := filepath.Join(t.root, t.uid, rec.TypeTag, day+".csv")
	if err := security.ValidatePathWithinDirectory(path, t.root); err != nil {
		return err
	}

	f, ok := t.open[path]
	if !ok {
		var err error
		if f, err = t.openFile(path); err != nil {
			return err
		}
		t.open[path] = f
	}

	cells, err := row(rec)
	if err != nil {
		return err
	}
	if err := f.csv.Write(cells); err != nil {
		return fmt.Errorf("failed to write record to %s: %w", path, err)
	}
	return nil
}

func (t *Tree) openFile(path string) (*treeFile, error) {
	if err := t.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writeHeader := !t.fs.Exists(path)
	wc, err := t.fs.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	f := &treeFile{wc: wc, csv: csv.NewWriter(wc)}
	if writeHeader {
		if err := f.csv.Write(Header); err != nil {
			wc.Close()
			return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	return f, nil
}

// Close flushes and closes every open file. The Tree is unusable
// afterwards.
func (t *Tree) Close() error {
	var firstErr error
	for path, f := range t.open {
		f.csv.Flush()
		if err := f.csv.Error(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to flush %s: %w", path, err)
		}
		if err := f.wc.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", path, err)
		}
		delete(t.open, path)
	}
	return firstErr
}
