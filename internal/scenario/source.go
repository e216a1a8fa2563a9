package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sphereworld/internal/archive"
	"sphereworld/internal/download"
)

// ErrNoScenario is returned by Open when a bundle holds no YAML file.
var ErrNoScenario = errors.New("no scenario file in bundle")

// Open loads a scenario from a local .yaml file, a .zip bundle or an http(s) URL to either.
// Fetched and extracted files go under cacheDir. When cacheDir is empty and a fetch or unzip
// is needed, a temporary directory is used and removed once the scenario is loaded.
func Open(ctx context.Context, ref, cacheDir string) (*Scenario, error) {
	needsCache := download.IsURL(ref) || isBundle(ref)
	if cacheDir == "" && needsCache {
		dir, err := os.MkdirTemp("", "sphereworld-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
		cacheDir = dir
	}
	path := ref
	if download.IsURL(ref) {
		p, err := download.Download(ctx, ref, cacheDir)
		if err != nil {
			return nil, err
		}
		path = p
	}
	if isBundle(path) {
		dest := filepath.Join(cacheDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if _, err := archive.Unzip(path, dest); err != nil {
			return nil, err
		}
		files, err := archive.FindScenarioFiles(dest)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%s: %w", ref, ErrNoScenario)
		}
		path = files[0]
	}
	return Load(path)
}

func isBundle(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}
