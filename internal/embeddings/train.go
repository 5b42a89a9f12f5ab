package embeddings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/fwe/internal/config"
)

// MaxSentenceTokens caps the tokens handed to a trainer in one sentence;
// longer lines are split.
const MaxSentenceTokens = 10000

// ErrNoSentlines is returned when the corpus directory has no *.sl files.
var ErrNoSentlines = errors.New("no sentence-lines files found")

// Model is a trained embedding model
type Model interface {
	// Name is the lowercase model family, such as "word2vec".
	Name() string
	// CorpusWords is the number of tokens the model was trained on.
	CorpusWords() int64
	Vectors() *Vectors
}

// Trainer trains one model family on a sentence-lines corpus.
type Trainer interface {
	Name() string
	Train(ctx context.Context, corpus *LineSentences, dims int) (Model, error)
}

// SaveOptions controls which files Save writes
type SaveOptions struct {
	Text     bool
	Compress bool
}

// Output lists the files written for one model
type Output struct {
	Model  string
	Binary string
	Text   string
}

// Save writes the model's vectors next to each other in outDir, named after
// the corpus file they were trained on.
func Save(sentlines, outDir string, m Model, opts SaveOptions) (Output, error) {
	vecs := m.Vectors()
	bin, vec := OutputPaths(sentlines, outDir, m.Name(), vecs.Dims(), m.CorpusWords())
	out := Output{Model: m.Name(), Binary: bin}

	if err := writeFile(bin, vecs.WriteBinary); err != nil {
		return out, err
	}
	if opts.Text {
		if err := writeFile(vec, vecs.WriteText); err != nil {
			return out, err
		}
		out.Text = vec
	}

	if !opts.Compress {
		return out, nil
	}
	gz, err := GzipFile(bin, true)
	if err != nil {
		return out, err
	}
	out.Binary = gz
	if opts.Text {
		gz, err := GzipFile(vec, true)
		if err != nil {
			return out, err
		}
		out.Text = gz
	}
	return out, nil
}

// CreateAll trains every trainer on every sentence-lines file of
// cfg.SentlinesDir and saves the results into cfg.OutputDir.
func CreateAll(ctx context.Context, cfg config.EmbeddingsConfig, logger *logrus.Entry, trainers ...Trainer) ([]Output, error) {
	start := time.Now()
	logger = logger.WithField("component", "embeddings")

	files, err := filepath.Glob(filepath.Join(cfg.SentlinesDir, "*.sl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sentence-lines files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSentlines, cfg.SentlinesDir)
	}
	sort.Strings(files)

	if _, err := os.Stat(cfg.OutputDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		logger.Warnf("Created directory in %q", cfg.OutputDir)
	}

	var outputs []Output
	for _, path := range files {
		logger.Infof("Creating embeddings for sentlines %s...", path)
		for _, tr := range trainers {
			if err := ctx.Err(); err != nil {
				return outputs, err
			}

			out, err := trainOne(ctx, tr, path, cfg)
			if err != nil {
				return outputs, fmt.Errorf("%s on %s: %w", tr.Name(), filepath.Base(path), err)
			}
			outputs = append(outputs, out)
			logger.WithFields(logrus.Fields{
				"model":  tr.Name(),
				"output": out.Binary,
			}).Info("Saved word vectors")
		}
	}

	logger.WithFields(logrus.Fields{
		"models":  humanize.Comma(int64(len(outputs))),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("All done")
	return outputs, nil
}

func trainOne(ctx context.Context, tr Trainer, path string, cfg config.EmbeddingsConfig) (Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return Output{}, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	m, err := tr.Train(ctx, NewLineSentences(f), cfg.Dims)
	if err != nil {
		return Output{}, err
	}
	return Save(path, cfg.OutputDir, m, SaveOptions{Text: cfg.SaveText, Compress: cfg.Compress})
}

// LineSentences reads a sentence-lines corpus one sentence at a time. Each
// line is split on whitespace and lines of more than MaxSentenceTokens tokens
// come back as several sentences.
type LineSentences struct {
	r       *bufio.Reader
	pending []string
}

// NewLineSentences wraps r.
func NewLineSentences(r io.Reader) *LineSentences {
	return &LineSentences{r: bufio.NewReaderSize(r, 1<<20)}
}

// Next returns the next sentence, or io.EOF at the end of the corpus.
// Blank lines are skipped.
func (s *LineSentences) Next() ([]string, error) {
	for len(s.pending) == 0 {
		line, err := s.r.ReadString('\n')
		s.pending = strings.Fields(line)
		if len(s.pending) > 0 {
			break
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}
	}

	n := min(len(s.pending), MaxSentenceTokens)
	sent := s.pending[:n:n]
	s.pending = s.pending[n:]
	return sent, nil
}
