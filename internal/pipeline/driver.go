// Package pipeline drives sentence extraction over feed files in bounded
// chunks, fanning each chunk out to a fixed number of workers.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/knowledge-engine/fwe/internal/feed"
)

const (
	DefaultLinesPerChunk = 30000
	DefaultWorkers       = 3
)

// LineExtractor turns raw feed lines into clean sentences. It must be safe
// for concurrent use.
type LineExtractor interface {
	ExtractLines(lines []feed.Line) ([]string, error)
}

// Stats summarises one processed file
type Stats struct {
	Lines     int
	Chunks    int
	Sentences int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Lines += other.Lines
	s.Chunks += other.Chunks
	s.Sentences += other.Sentences
}

// ChunkError reports the chunk a worker failed on
type ChunkError struct {
	File      string
	Chunk     int
	FirstLine int
	LastLine  int
	Err       error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s: chunk %d (lines %d-%d): %v", e.File, e.Chunk, e.FirstLine, e.LastLine, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Driver processes feed files chunk by chunk. Chunks run one after another;
// the lines of a chunk are split between workers.
type Driver struct {
	ex            LineExtractor
	logger        *logrus.Entry
	linesPerChunk int
	workers       int
	seen          *Seen
}

// Option configures a Driver.
type Option func(*Driver)

// WithLinesPerChunk sets how many raw lines make up one chunk.
func WithLinesPerChunk(n int) Option {
	return func(d *Driver) { d.linesPerChunk = n }
}

// WithWorkers sets the number of concurrent workers per chunk.
func WithWorkers(n int) Option {
	return func(d *Driver) { d.workers = n }
}

// WithSeen drops sentences already written earlier in the run.
func WithSeen(s *Seen) Option {
	return func(d *Driver) { d.seen = s }
}

// New creates a Driver.
func New(ex LineExtractor, logger *logrus.Entry, opts ...Option) *Driver {
	d := &Driver{
		ex:            ex,
		logger:        logger.WithField("component", "pipeline"),
		linesPerChunk: DefaultLinesPerChunk,
		workers:       DefaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.linesPerChunk < 1 {
		d.linesPerChunk = 1
	}
	if d.workers < 1 {
		d.workers = 1
	}
	return d
}

// ProcessFile extracts the sentences of the feed file at path into out.
func (d *Driver) ProcessFile(ctx context.Context, path string, out io.Writer) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open feed file: %w", err)
	}
	defer f.Close()

	return d.ProcessReader(ctx, path, f, out)
}

// ProcessReader extracts the sentences of a feed stream into out. Each chunk
// is deduplicated and written before the next one is read. A failing chunk
// writes nothing and stops the stream.
func (d *Driver) ProcessReader(ctx context.Context, name string, r io.ReadSeeker, out io.Writer) (Stats, error) {
	log := d.logger.WithField("file", name)

	log.Info("Reading number of lines in the file...")
	total, err := feed.CountLines(r)
	if err != nil {
		return Stats{}, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Stats{}, fmt.Errorf("failed to rewind feed file: %w", err)
	}

	stats := Stats{Lines: total}
	w := bufio.NewWriter(out)
	chunks := feed.NewChunkReader(r, d.linesPerChunk)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk, err := chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		start := time.Now()
		end := min((chunk.Index+1)*d.linesPerChunk, total)
		log.Infof("Lines %.0f - %.0fk / %.0fk",
			float64(chunk.Index*d.linesPerChunk)/1e3, float64(end)/1e3, float64(total)/1e3)

		sents, err := d.processChunk(ctx, chunk)
		if err != nil {
			return stats, &ChunkError{
				File:      name,
				Chunk:     chunk.Index,
				FirstLine: chunk.FirstLine,
				LastLine:  chunk.LastLine,
				Err:       err,
			}
		}

		log.Infof("Writing %s sentences...", humanize.Comma(int64(len(sents))))
		for _, s := range sents {
			if _, err := w.WriteString(s); err != nil {
				return stats, fmt.Errorf("failed to write sentence: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return stats, fmt.Errorf("failed to write sentence: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return stats, fmt.Errorf("failed to flush output: %w", err)
		}

		stats.Chunks++
		stats.Sentences += len(sents)
		log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Chunk done")
	}

	return stats, nil
}

// processChunk runs the workers over the chunk and returns the unique
// sentences in dispatch order.
func (d *Driver) processChunk(ctx context.Context, chunk *feed.Chunk) ([]string, error) {
	parts := Partition(chunk.Lines, d.workers)
	results := make([][]string, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			sents, err := d.extract(gctx, part)
			if err != nil {
				return err
			}
			results[i] = sents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, r := range results {
		all = append(all, r...)
	}
	unique := Dedup(all)
	if d.seen == nil {
		return unique, nil
	}

	out := unique[:0]
	for _, s := range unique {
		if d.seen.Add(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// extract handles one partition line by line so cancellation is noticed
// between lines.
func (d *Driver) extract(ctx context.Context, lines []feed.Line) ([]string, error) {
	var out []string
	for i := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sents, err := d.ex.ExtractLines(lines[i : i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, sents...)
	}
	return out, nil
}
