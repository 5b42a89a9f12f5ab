package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/fwe/internal/feed"
	"github.com/knowledge-engine/fwe/internal/logging"
	"github.com/knowledge-engine/fwe/internal/sentences"
	"github.com/knowledge-engine/fwe/internal/tokenize"
)

// MockExtractor is a mock implementation of LineExtractor
type MockExtractor struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockExtractor) ExtractLines(lines []feed.Line) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// echoExtractor returns each line's text as a sentence
type echoExtractor struct{}

func (echoExtractor) ExtractLines(lines []feed.Line) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out, nil
}

func feedLines(texts ...string) string {
	return strings.Join(texts, "\n") + "\n"
}

func TestPartition(t *testing.T) {
	lines := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}, Partition(lines, 3))
	assert.Equal(t, [][]int{lines}, Partition(lines, 1))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, Partition(lines[:4], 3))
	assert.Len(t, Partition(lines, 20), 10)
	assert.Nil(t, Partition([]int{}, 3))
	assert.Equal(t, [][]int{lines}, Partition(lines, 0))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Dedup([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Dedup(nil))
}

func TestSeen(t *testing.T) {
	s := NewSeen()
	assert.True(t, s.Add("yksi"))
	assert.True(t, s.Add("kaksi"))
	assert.False(t, s.Add("yksi"))
	assert.Equal(t, 2, s.Len())
}

func TestProcessReaderChunks(t *testing.T) {
	tests := []struct {
		lines, perChunk, wantChunks int
	}{
		{lines: 10, perChunk: 3, wantChunks: 4},
		{lines: 9, perChunk: 3, wantChunks: 3},
		{lines: 1, perChunk: 30000, wantChunks: 1},
		{lines: 0, perChunk: 3, wantChunks: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.lines, tt.perChunk), func(t *testing.T) {
			var texts []string
			for i := 0; i < tt.lines; i++ {
				texts = append(texts, fmt.Sprintf("rivi %d", i))
			}
			input := ""
			if tt.lines > 0 {
				input = feedLines(texts...)
			}

			d := New(echoExtractor{}, logging.Discard(), WithLinesPerChunk(tt.perChunk), WithWorkers(2))
			var out bytes.Buffer
			stats, err := d.ProcessReader(context.Background(), "test.jl", strings.NewReader(input), &out)
			require.NoError(t, err)

			assert.Equal(t, tt.wantChunks, stats.Chunks)
			assert.Equal(t, tt.lines, stats.Lines)
			assert.Equal(t, tt.lines, stats.Sentences)
			assert.Equal(t, input, out.String())
		})
	}
}

func TestProcessReaderDedupPerChunk(t *testing.T) {
	input := feedLines("a", "b", "a", "c", "b", "a")

	d := New(echoExtractor{}, logging.Discard(), WithLinesPerChunk(3), WithWorkers(3))
	var out bytes.Buffer
	stats, err := d.ProcessReader(context.Background(), "test.jl", strings.NewReader(input), &out)
	require.NoError(t, err)

	// Chunk one is "a b a", chunk two is "c b a": repeats across chunks survive.
	assert.Equal(t, "a\nb\nc\nb\na\n", out.String())
	assert.Equal(t, 5, stats.Sentences)
}

func TestProcessReaderGlobalDedup(t *testing.T) {
	input := feedLines("a", "b", "a", "c", "b", "a")

	seen := NewSeen()
	d := New(echoExtractor{}, logging.Discard(), WithLinesPerChunk(3), WithSeen(seen))
	var out bytes.Buffer
	_, err := d.ProcessReader(context.Background(), "test.jl", strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, "a\nb\nc\n", out.String())
	assert.Equal(t, 3, seen.Len())
}

func TestProcessReaderSkipsBlankLines(t *testing.T) {
	m := new(MockExtractor)
	m.On("ExtractLines", []feed.Line{{Number: 1, Text: "x"}}).Return([]string{"x"}, nil).Once()
	m.On("ExtractLines", []feed.Line{{Number: 3, Text: "y"}}).Return([]string{"y"}, nil).Once()

	d := New(m, logging.Discard(), WithLinesPerChunk(2), WithWorkers(1))
	var out bytes.Buffer
	stats, err := d.ProcessReader(context.Background(), "test.jl", strings.NewReader("x\n\ny\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, "x\ny\n", out.String())
	assert.Equal(t, Stats{Lines: 3, Chunks: 2, Sentences: 2}, stats)
	m.AssertExpectations(t)
}

func TestProcessReaderWorkerError(t *testing.T) {
	boom := &feed.LineError{Line: 5, Err: errors.New("bad json")}
	m := new(MockExtractor)
	m.On("ExtractLines", mock.MatchedBy(func(lines []feed.Line) bool { return lines[0].Number == 5 })).Return(nil, boom)
	m.On("ExtractLines", mock.Anything).Return([]string{"ok"}, nil)

	d := New(m, logging.Discard(), WithLinesPerChunk(3), WithWorkers(2))
	var out bytes.Buffer
	stats, err := d.ProcessReader(context.Background(), "test.jl", strings.NewReader(feedLines("1", "2", "3", "4", "5", "6")), &out)
	require.Error(t, err)

	var chunkErr *ChunkError
	require.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, "test.jl", chunkErr.File)
	assert.Equal(t, 1, chunkErr.Chunk)
	assert.Equal(t, 4, chunkErr.FirstLine)
	assert.Equal(t, 6, chunkErr.LastLine)

	var lineErr *feed.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 5, lineErr.Line)

	// Only the first chunk made it out.
	assert.Equal(t, "ok\n", out.String())
	assert.Equal(t, 1, stats.Chunks)
}

func TestProcessReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(echoExtractor{}, logging.Discard())
	var out bytes.Buffer
	_, err := d.ProcessReader(ctx, "test.jl", strings.NewReader(feedLines("a")), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestProcessFile(t *testing.T) {
	tok, err := tokenize.New("tweet")
	require.NoError(t, err)
	ex := sentences.New(tok)

	dir := t.TempDir()
	path := filepath.Join(dir, "yle.jl")
	input := feedLines(
		`{"url": "https://yle.fi/1", "content": ["Tämä on testi lause jossa on sanoja."]}`,
		`{"url": "https://yle.fi/2", "content": ["Tämä on testi lause jossa on sanoja.", "Lyhyt."]}`,
		`{"url": "https://yle.fi/3", "content": ["Toinen kappale sisältää myös riittävästi sanoja!"]}`,
	)
	require.NoError(t, os.WriteFile(path, []byte(input), 0644))

	d := New(ex, logging.Discard())
	var out bytes.Buffer
	stats, err := d.ProcessFile(context.Background(), path, &out)
	require.NoError(t, err)

	assert.Equal(t, "Tämä on testi lause jossa on sanoja\nToinen kappale sisältää myös riittävästi sanoja\n", out.String())
	assert.Equal(t, Stats{Lines: 3, Chunks: 1, Sentences: 2}, stats)
}

func TestProcessFileMissing(t *testing.T) {
	d := New(echoExtractor{}, logging.Discard())
	_, err := d.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.jl"), &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStatsAdd(t *testing.T) {
	s := Stats{Lines: 1, Chunks: 1, Sentences: 1}
	s.Add(Stats{Lines: 2, Chunks: 3, Sentences: 4})
	assert.Equal(t, Stats{Lines: 3, Chunks: 4, Sentences: 5}, s)
}
