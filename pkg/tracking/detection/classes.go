package detection

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadClassNames reads a names file with one class per line. Blank lines and lines
// starting with '#' are skipped.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read class names: %w", err)
	}
	defer f.Close()
	return ParseClassNames(f)
}

// ParseClassNames reads class names from r, one per line.
func ParseClassNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse class names: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoClasses
	}
	return names, nil
}

// SplitClassNames parses a comma separated class list such as "Hand-Signal,Player".
func SplitClassNames(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
