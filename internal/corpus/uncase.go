package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UncasedSuffix replaces the extension of the corpus file in the name of
// its lowercased copy.
const UncasedSuffix = ".uncased.sl"

// UncasedPath returns the path of the lowercased copy of out.
func UncasedPath(out string) string {
	ext := filepath.Ext(out)
	if ext == filepath.Base(out) {
		ext = ""
	}
	return strings.TrimSuffix(out, ext) + UncasedSuffix
}

// Uncase writes a Finnish-lowercased copy of src to dst, line by line.
// Running it on its own output changes nothing.
func Uncase(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create uncased corpus: %w", err)
	}

	if err := lowerLines(in, out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close uncased corpus: %w", err)
	}
	return nil
}

func lowerLines(r io.Reader, w io.Writer) error {
	lower := cases.Lower(language.Finnish)
	br := bufio.NewReaderSize(r, 1<<20)
	bw := bufio.NewWriterSize(w, 1<<20)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if _, werr := bw.WriteString(lower.String(line)); werr != nil {
				return fmt.Errorf("failed to write uncased line: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read corpus: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush uncased corpus: %w", err)
	}
	return nil
}
