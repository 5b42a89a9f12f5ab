package embeddings

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/fwe/internal/config"
	"github.com/knowledge-engine/fwe/internal/logging"
)

func sampleVectors() *Vectors {
	return &Vectors{
		Words:  []string{"kissa", "koira"},
		Values: [][]float32{{0.5, -1}, {0.25, 2}},
	}
}

// countModel is a stand-in model with one vector per distinct word
type countModel struct {
	name  string
	words int64
	vecs  *Vectors
}

func (m *countModel) Name() string       { return m.name }
func (m *countModel) CorpusWords() int64 { return m.words }
func (m *countModel) Vectors() *Vectors  { return m.vecs }

// countTrainer builds a countModel from the corpus by counting tokens
type countTrainer struct {
	name string
	seen [][]string
}

func (c *countTrainer) Name() string { return c.name }

func (c *countTrainer) Train(_ context.Context, corpus *LineSentences, dims int) (Model, error) {
	m := &countModel{name: c.name, vecs: &Vectors{}}
	index := map[string]int{}
	for {
		sent, err := corpus.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		c.seen = append(c.seen, sent)
		for _, w := range sent {
			m.words++
			if _, ok := index[w]; !ok {
				index[w] = len(m.vecs.Words)
				m.vecs.Words = append(m.vecs.Words, w)
				m.vecs.Values = append(m.vecs.Values, make([]float32, dims))
			}
			m.vecs.Values[index[w]][0]++
		}
	}
	return m, nil
}

type failingTrainer struct{}

func (failingTrainer) Name() string { return "broken" }

func (failingTrainer) Train(context.Context, *LineSentences, int) (Model, error) {
	return nil, errors.New("out of memory")
}

func TestOutputPaths(t *testing.T) {
	bin, vec := OutputPaths("/data/processed/all.sl", "/data/embeddings", "word2vec", 300, 123_456_789)
	assert.Equal(t, "/data/embeddings/word2vec.fi.all.123M.300d.bin", bin)
	assert.Equal(t, "/data/embeddings/word2vec.fi.all.123M.300d.vec", vec)

	bin, _ = OutputPaths("/data/processed/all.uncased.sl", "/data/embeddings", "fasttext", 100, 2_500_000)
	assert.Equal(t, "/data/embeddings/fasttext.fi.all.uncased.2M.100d.bin", bin)

	bin, vec = OutputPaths("/data/processed/all.sl", "/data/embeddings", "", 300, 0)
	assert.Equal(t, "/data/embeddings/all.bin", bin)
	assert.Equal(t, "/data/embeddings/all.vec", vec)

	bin, _ = OutputPaths("corpus.sl", "out", "word2vec", 300, 600_000)
	assert.True(t, filepath.IsAbs(bin))
	assert.Equal(t, "word2vec.fi.corpus.1M.300d.bin", filepath.Base(bin))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleVectors().WriteText(&buf))
	assert.Equal(t, "2 2\nkissa 0.5 -1\nkoira 0.25 2\n", buf.String())
}

func TestWriteBinary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleVectors().WriteBinary(&buf))

	data := buf.Bytes()
	header := "2 2\n"
	require.True(t, bytes.HasPrefix(data, []byte(header)))
	data = data[len(header):]

	for _, want := range []struct {
		word string
		vals []float32
	}{{"kissa", []float32{0.5, -1}}, {"koira", []float32{0.25, 2}}} {
		require.True(t, bytes.HasPrefix(data, []byte(want.word+" ")))
		data = data[len(want.word)+1:]
		for _, v := range want.vals {
			assert.Equal(t, v, math.Float32frombits(binary.LittleEndian.Uint32(data)))
			data = data[4:]
		}
	}
	assert.Empty(t, data)
}

func TestVectorsValidate(t *testing.T) {
	assert.NoError(t, sampleVectors().Validate())
	assert.NoError(t, (&Vectors{}).Validate())
	assert.Error(t, (&Vectors{Words: []string{"a"}}).Validate())
	assert.Error(t, (&Vectors{Words: []string{"a", "b"}, Values: [][]float32{{1}, {1, 2}}}).Validate())
	assert.Error(t, (&Vectors{Words: []string{"a b"}, Values: [][]float32{{1}}}).Validate())
	assert.Error(t, sampleVectorsWith("", 1).WriteText(io.Discard))
}

func sampleVectorsWith(word string, v float32) *Vectors {
	return &Vectors{Words: []string{word}, Values: [][]float32{{v}}}
}

func TestGzipFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.vec")
	require.NoError(t, os.WriteFile(path, []byte("1 1\nkissa 1\n"), 0644))

	gz, err := GzipFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, path+".gz", gz)
	assert.FileExists(t, path)

	f, err := os.Open(gz)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "1 1\nkissa 1\n", string(data))

	_, err = GzipFile(path, true)
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	_, err = GzipFile(filepath.Join(dir, "missing"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLineSentences(t *testing.T) {
	long := strings.Repeat("sana ", MaxSentenceTokens+5)
	corpus := "yksi kaksi\n\n  \nkolme\n" + long + "\nviimeinen"

	ls := NewLineSentences(strings.NewReader(corpus))
	var got [][]string
	for {
		sent, err := ls.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, sent)
	}

	require.Len(t, got, 5)
	assert.Equal(t, []string{"yksi", "kaksi"}, got[0])
	assert.Equal(t, []string{"kolme"}, got[1])
	assert.Len(t, got[2], MaxSentenceTokens)
	assert.Len(t, got[3], 5)
	assert.Equal(t, []string{"viimeinen"}, got[4])
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	m := &countModel{name: "word2vec", words: 3_000_000, vecs: sampleVectors()}

	out, err := Save("/corpus/all.sl", dir, m, SaveOptions{Text: true, Compress: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "word2vec.fi.all.3M.2d.bin.gz"), out.Binary)
	assert.Equal(t, filepath.Join(dir, "word2vec.fi.all.3M.2d.vec.gz"), out.Text)
	assert.FileExists(t, out.Binary)
	assert.FileExists(t, out.Text)
	assert.NoFileExists(t, strings.TrimSuffix(out.Binary, ".gz"))

	plain, err := Save("/corpus/all.sl", dir, m, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "word2vec.fi.all.3M.2d.bin"), plain.Binary)
	assert.Empty(t, plain.Text)
	assert.NoFileExists(t, filepath.Join(dir, "word2vec.fi.all.3M.2d.vec"))
}

func TestCreateAll(t *testing.T) {
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "processed")
	require.NoError(t, os.MkdirAll(corpusDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "all.sl"), []byte("kissa koira\nkissa\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "all.uncased.sl"), []byte("kissa\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "notes.txt"), []byte("ohita\n"), 0644))

	cfg := config.EmbeddingsConfig{
		SentlinesDir: corpusDir,
		OutputDir:    filepath.Join(dir, "embeddings"),
		Dims:         4,
		Compress:     false,
	}
	w2v := &countTrainer{name: "word2vec"}
	ft := &countTrainer{name: "fasttext"}

	outputs, err := CreateAll(context.Background(), cfg, logging.Discard(), w2v, ft)
	require.NoError(t, err)
	require.Len(t, outputs, 4)

	assert.Equal(t, "word2vec", outputs[0].Model)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "word2vec.fi.all.0M.4d.bin"), outputs[0].Binary)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "fasttext.fi.all.uncased.0M.4d.bin"), outputs[3].Binary)
	for _, out := range outputs {
		assert.FileExists(t, out.Binary)
	}
	assert.Equal(t, [][]string{{"kissa", "koira"}, {"kissa"}, {"kissa"}}, w2v.seen)
}

func TestCreateAllErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.EmbeddingsConfig{SentlinesDir: dir, OutputDir: filepath.Join(dir, "out"), Dims: 2}

	_, err := CreateAll(context.Background(), cfg, logging.Discard(), &countTrainer{name: "word2vec"})
	assert.ErrorIs(t, err, ErrNoSentlines)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "all.sl"), []byte("kissa\n"), 0644))
	_, err = CreateAll(context.Background(), cfg, logging.Discard(), failingTrainer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken on all.sl")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CreateAll(ctx, cfg, logging.Discard(), &countTrainer{name: "word2vec"})
	assert.ErrorIs(t, err, context.Canceled)
}
