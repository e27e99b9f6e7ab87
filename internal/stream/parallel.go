package stream

import (
	"context"
	"sync"

	"github.com/emotibit-data/biometric.report/internal/record"
)

// Line is one raw input line tagged with its position in the source.
type Line struct {
	No   int
	Text string
}

// Result is the outcome of decoding one line. Exactly one of Record and
// Err is meaningful.
type Result struct {
	Line   Line
	Record record.Record
	Err    error
}

// DecodeLines decodes lines on a pool of worker goroutines and returns
// the results channel, closed once the input channel is drained.
// Decoding is stateless over a read-only tag table, so the workers need
// no synchronization; result ordering follows completion, not input
// order, and callers that need input order should sort on Line.No.
func DecodeLines(ctx context.Context, lines <-chan Line, workers int) <-chan Result {
	if workers < 1 {
		workers = 1
	}

	out := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case line, ok := <-lines:
					if !ok {
						return
					}
					rec, err := record.Decode(line.Text)
					res := Result{Line: line, Record: rec, Err: err}
					select {
					case out <- res:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
