package feed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Chunk is a bounded window of feed lines processed as one parallel unit.
// Blank lines count toward the window but are not part of Lines.
type Chunk struct {
	Index     int
	FirstLine int
	LastLine  int
	Lines     []Line
}

// ChunkReader splits a feed stream into chunks of a fixed number of raw lines
type ChunkReader struct {
	r     *bufio.Reader
	size  int
	line  int
	index int
	done  bool
}

// NewChunkReader creates a reader yielding chunks of size raw lines.
func NewChunkReader(r io.Reader, size int) *ChunkReader {
	if size <= 0 {
		size = 1
	}
	return &ChunkReader{r: bufio.NewReaderSize(r, 1<<20), size: size}
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// The last chunk may be shorter than the configured size.
func (c *ChunkReader) Next() (*Chunk, error) {
	if c.done {
		return nil, io.EOF
	}

	chunk := &Chunk{Index: c.index, FirstLine: c.line + 1}
	read := 0
	for read < c.size {
		text, err := c.r.ReadString('\n')
		if len(text) > 0 {
			c.line++
			read++
			if strings.TrimSpace(text) != "" {
				chunk.Lines = append(chunk.Lines, Line{Number: c.line, Text: strings.TrimRight(text, "\r\n")})
			}
		}
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", c.line+1, err)
		}
	}

	if read == 0 {
		return nil, io.EOF
	}
	chunk.LastLine = c.line
	c.index++
	return chunk, nil
}

// CountLines counts the lines of a stream, including a final line without
// a trailing newline.
func CountLines(r io.Reader) (int, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	count := 0
	var last byte = '\n'
	buf := make([]byte, 1<<16)
	for {
		n, err := br.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
			}
		}
		if n > 0 {
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count lines: %w", err)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
