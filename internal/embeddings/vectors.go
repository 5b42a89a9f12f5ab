// Package embeddings defines the files word-embedding runs produce from a
// sentence-lines corpus: their names, the word2vec vector formats, gzip
// compression and the loop driving external trainers.
package embeddings

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Vectors is a vocabulary with one vector per word
type Vectors struct {
	Words  []string
	Values [][]float32
}

// Dims returns the vector dimension, or 0 for an empty vocabulary.
func (v *Vectors) Dims() int {
	if len(v.Values) == 0 {
		return 0
	}
	return len(v.Values[0])
}

// Validate checks that every word has a vector of the same dimension.
func (v *Vectors) Validate() error {
	if len(v.Words) != len(v.Values) {
		return fmt.Errorf("%d words but %d vectors", len(v.Words), len(v.Values))
	}
	dims := v.Dims()
	for i, row := range v.Values {
		if len(row) != dims {
			return fmt.Errorf("vector %d (%q) has %d dimensions, want %d", i, v.Words[i], len(row), dims)
		}
	}
	for i, w := range v.Words {
		if w == "" || strings.ContainsAny(w, " \n") {
			return fmt.Errorf("word %d (%q) is empty or contains a separator", i, w)
		}
	}
	return nil
}

// WriteText writes the word2vec text format: a "count dims" header, then one
// line per word with its space-separated components.
func (v *Vectors) WriteText(w io.Writer) error {
	if err := v.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(v.Words), v.Dims())
	for i, word := range v.Words {
		bw.WriteString(word)
		for _, x := range v.Values[i] {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write text vectors: %w", err)
	}
	return nil
}

// WriteBinary writes the word2vec binary format: the text header, then per
// word its bytes, a space and dims little-endian float32 values. Rows are
// not newline terminated.
func (v *Vectors) WriteBinary(w io.Writer) error {
	if err := v.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(v.Words), v.Dims())
	buf := make([]byte, 4*v.Dims())
	for i, word := range v.Words {
		bw.WriteString(word)
		bw.WriteByte(' ')
		for j, x := range v.Values[i] {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(x))
		}
		bw.Write(buf)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write binary vectors: %w", err)
	}
	return nil
}
