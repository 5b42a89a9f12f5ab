package embeddings

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// OutputPaths returns the binary and text vector paths for a model trained
// on the corpus file in. With a model name the base name records the model,
// the corpus, the token count in millions and the dimension, for example
// "word2vec.fi.all.120M.300d".
func OutputPaths(in, outDir, model string, dims int, tokens int64) (bin, vec string) {
	base := filepath.Base(in)
	if ext := filepath.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if model != "" {
		base = fmt.Sprintf("%s.fi.%s.%.0fM.%dd", model, base, float64(tokens)/1e6, dims)
	}

	out := filepath.Join(outDir, base)
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	return out + ".bin", out + ".vec"
}

// GzipFile compresses path into path.gz and returns the new path. The
// original is removed when removeOriginal is set.
func GzipFile(path string, removeOriginal bool) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	dst := path + ".gz"
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(path)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to finish %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dst, err)
	}

	if removeOriginal {
		in.Close()
		if err := os.Remove(path); err != nil {
			return dst, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return dst, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
