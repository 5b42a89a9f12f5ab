// Package corpus assembles the sentence-lines corpus from every feed file
// of a directory.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/fwe/internal/config"
	"github.com/knowledge-engine/fwe/internal/pipeline"
	"github.com/knowledge-engine/fwe/internal/sentences"
	"github.com/knowledge-engine/fwe/internal/tokenize"
)

// ErrNoFeedFiles is returned when the input directory holds no feed files.
var ErrNoFeedFiles = errors.New("no feed files found")

// FeedPattern matches feed files inside the input directory.
const FeedPattern = "*.jl"

// Result describes a finished run
type Result struct {
	Files   []string
	Output  string
	Uncased string
	Stats   pipeline.Stats
	Elapsed time.Duration
}

// Assembler runs the preprocessing pipeline over a feed directory
type Assembler struct {
	cfg    config.PreprocessConfig
	logger *logrus.Entry
	driver *pipeline.Driver
}

// New validates cfg and builds the tokenizer, extractor and driver. An
// unknown tokenizer fails here, before any file is touched.
func New(cfg config.PreprocessConfig, logger *logrus.Entry) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess config: %w", err)
	}

	tok, err := tokenize.New(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	logger = logger.WithField("component", "corpus")
	opts := []pipeline.Option{
		pipeline.WithLinesPerChunk(cfg.LinesPerChunk),
		pipeline.WithWorkers(cfg.Workers),
	}
	if cfg.GlobalDedup {
		opts = append(opts, pipeline.WithSeen(pipeline.NewSeen()))
	}

	ex := sentences.New(tok, sentences.WithMinSentLen(cfg.MinSentLen))
	return &Assembler{
		cfg:    cfg,
		logger: logger,
		driver: pipeline.New(ex, logger, opts...),
	}, nil
}

// Run processes every feed file in name order into the output file, which
// is truncated first. With CreateUncased it then writes the lowercased copy.
func (a *Assembler) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	files, err := FeedFiles(a.cfg.InputDir)
	if err != nil {
		return Result{}, err
	}

	out, err := filepath.Abs(a.cfg.OutputPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := a.ensureDir(filepath.Dir(out)); err != nil {
		return Result{}, err
	}

	res := Result{Files: files, Output: out}
	for i, path := range files {
		a.logger.Infof("Processing file %q (%d / %d)", path, i+1, len(files))

		stats, err := a.processFile(ctx, path, out, i == 0)
		res.Stats.Add(stats)
		if err != nil {
			return res, err
		}
	}

	if a.cfg.CreateUncased {
		res.Uncased = UncasedPath(out)
		a.logger.Infof("Creating uncased into %q...", res.Uncased)
		if err := Uncase(out, res.Uncased); err != nil {
			return res, err
		}
	}

	res.Elapsed = time.Since(start)
	a.logger.WithFields(logrus.Fields{
		"files":     len(files),
		"lines":     humanize.Comma(int64(res.Stats.Lines)),
		"sentences": humanize.Comma(int64(res.Stats.Sentences)),
		"elapsed":   res.Elapsed.Round(time.Millisecond),
	}).Info("All done")
	return res, nil
}

func (a *Assembler) processFile(ctx context.Context, path, out string, first bool) (pipeline.Stats, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if first {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(out, flags, 0644)
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("failed to open output file: %w", err)
	}

	fileStart := time.Now()
	stats, err := a.driver.ProcessFile(ctx, path, f)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	if err != nil {
		return stats, err
	}

	a.logger.WithFields(logrus.Fields{
		"file":      filepath.Base(path),
		"sentences": humanize.Comma(int64(stats.Sentences)),
		"elapsed":   time.Since(fileStart).Round(time.Millisecond),
	}).Info("File done")
	return stats, nil
}

func (a *Assembler) ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.logger.Warnf("Created directory in %s", dir)
	return nil
}

// FeedFiles lists the feed files of dir as sorted absolute paths.
func FeedFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, FeedPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list feed files: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFeedFiles, dir)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", m, err)
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}
