package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileReader supplies a file's raw lines with terminators preserved.
// Abstracted so the builder can be tested against in-memory sources and
// so unreadable files stay a per-file failure, never a batch abort.
type FileReader interface {
	ReadLines(path string) ([]string, error)
}

// OSReader reads files from the local filesystem.
type OSReader struct{}

// ReadLines returns the file's lines, each retaining its trailing
// newline. The final line is included even without a terminator.
func (OSReader) ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()
	return readLines(bufio.NewReader(f))
}

func readLines(r *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read source file: %w", err)
		}
	}
}

// MapReader serves lines from an in-memory path -> content map.
// Intended for tests.
type MapReader map[string]string

// ReadLines implements FileReader.
func (m MapReader) ReadLines(path string) ([]string, error) {
	content, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	var lines []string
	for len(content) > 0 {
		i := strings.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, content)
			break
		}
		lines = append(lines, content[:i+1])
		content = content[i+1:]
	}
	return lines, nil
}
