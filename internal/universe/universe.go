// Package universe resolves the configured instrument list.
package universe

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads the instrument universe from a text file, one symbol per line.
// Blank lines and '#' comments are skipped; order is preserved.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	var symbols []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	return symbols, nil
}
