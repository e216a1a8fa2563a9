package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a dotenv file and exports each KEY=VALUE pair that is not already set to a
// non-empty value, so the real environment wins over the file. A missing file is not an error.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, kv := range vars {
		if os.Getenv(kv[0]) != "" {
			continue
		}
		if err := os.Setenv(kv[0], kv[1]); err != nil {
			return fmt.Errorf("set %s: %w", kv[0], err)
		}
	}
	return nil
}

// Parse returns the KEY=VALUE pairs of r in file order. Blank lines, # comments and lines
// without a key are skipped; an optional "export " prefix and matching quotes are stripped.
func Parse(r io.Reader) ([][2]string, error) {
	var vars [][2]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		vars = append(vars, [2]string{key, unquote(strings.TrimSpace(value))})
	}
	return vars, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
