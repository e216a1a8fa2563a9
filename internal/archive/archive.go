package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// maxEntrySize caps a single extracted file. Scenario bundles are small text files.
const maxEntrySize = 64 << 20

// Unzip extracts zipPath into destDir, preserving directory structure. Entries that would
// escape destDir are skipped. Returns the extracted file paths in archive order.
func Unzip(zipPath, destDir string) (extracted []string, err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	defer r.Close()
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	for _, f := range r.File {
		dest := filepath.Join(absDir, f.Name)
		if !strings.HasPrefix(dest, absDir+string(os.PathSeparator)) {
			continue
		}
		if f.FileInfo().IsDir() {
			_ = os.MkdirAll(dest, 0755)
			continue
		}
		if err := extractFile(f, dest); err != nil {
			return extracted, fmt.Errorf("unzip %s: %w", f.Name, err)
		}
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxEntrySize {
		err = fmt.Errorf("entry larger than %d bytes", maxEntrySize)
	}
	if err != nil {
		_ = os.Remove(dest)
	}
	return err
}

// FindScenarioFiles returns the .yaml and .yml files under dir in lexical order, with files
// named scenario.yaml (or .yml) first.
func FindScenarioFiles(dir string) ([]string, error) {
	var preferred, other []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if strings.TrimSuffix(strings.ToLower(d.Name()), ext) == "scenario" {
			preferred = append(preferred, path)
		} else {
			other = append(other, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(preferred)
	slices.Sort(other)
	return append(preferred, other...), nil
}
