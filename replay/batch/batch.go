// Package batch decodes many replays concurrently. Every file is decoded in
// its own session; nothing is shared between sessions except the Collector
// that gathers their results.
package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/reallyoldfogie/fortnite-replay-go/replay"
)

// Result is the outcome of decoding one file.
type Result struct {
	Path   string
	Replay *replay.Replay
	Err    error
}

// Options configures DecodeFiles.
type Options struct {
	// Jobs bounds the number of files decoded at once. Zero means GOMAXPROCS.
	Jobs int
	// Logger receives diagnostics of every session, scoped by path.
	// Nil means the global zerolog logger.
	Logger *zerolog.Logger
	// Validate additionally runs replay.Validate on every decoded file.
	Validate bool
}

// Collector gathers results from concurrent sessions in input order.
// It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	results []Result
	failed  int
}

// NewCollector returns a collector with room for n results.
func NewCollector(n int) *Collector {
	return &Collector{results: make([]Result, n)}
}

// Set stores the result for input index i.
func (c *Collector) Set(i int, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[i] = r
	if r.Err != nil {
		c.failed++
	}
}

// Results returns a copy of the collected results.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Failed returns the number of results carrying an error.
func (c *Collector) Failed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// DecodeFiles decodes every path and returns one Result per path, in order.
// A failing file does not stop the others. When ctx is cancelled no new
// files are started and the remaining results carry ctx.Err().
func DecodeFiles(ctx context.Context, paths []string, opts Options) []Result {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	col := NewCollector(len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		if err := gctx.Err(); err != nil {
			col.Set(i, Result{Path: path, Err: err})
			continue
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				col.Set(i, Result{Path: path, Err: err})
				return nil
			}
			col.Set(i, decodeOne(path, opts))
			return nil
		})
	}
	_ = g.Wait()
	return col.Results()
}

func decodeOne(path string, opts Options) Result {
	base := log.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}
	l := base.With().Str("component", "replay").Str("path", path).Logger()

	r, err := replay.Open(path, replay.WithLogger(l))
	if err != nil {
		return Result{Path: path, Err: err}
	}
	if opts.Validate {
		if err := replay.Validate(r, l); err != nil {
			return Result{Path: path, Replay: r, Err: err}
		}
	}
	return Result{Path: path, Replay: r}
}
