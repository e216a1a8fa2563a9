package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const userAgent = "sphereworld/1 (scenario fetch)"

// Timeout bounds a whole fetch, headers and body included.
const Timeout = 60 * time.Second

// Download fetches url and saves it under destDir. The filename comes from Content-Disposition
// or the URL path; the extension from the URL or Content-Type (.yaml, .yml or .zip).
// Returns the path to the saved file. destDir is created if needed.
func Download(ctx context.Context, url string, destDir string) (savedPath string, err error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: HTTP %d", url, resp.StatusCode)
	}
	ext := extensionFromURL(url)
	if ext == "" {
		ext = extensionFromContentType(resp.Header.Get("Content-Type"))
	}
	if ext == "" {
		ext = ".yaml"
	}
	name := filenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = filenameFromURL(url)
	}
	name = sanitizeFilename(strings.TrimSuffix(name, filepath.Ext(name))) + ext

	savedPath = filepath.Join(destDir, name)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	out, err := os.Create(savedPath)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	_, err = io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(savedPath)
		return "", fmt.Errorf("download: %w", err)
	}
	return savedPath, nil
}

// IsURL reports whether ref should be fetched rather than opened from disk.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func filenameFromContentDisposition(cd string) string {
	cd = strings.TrimSpace(cd)
	// filename="..."; or filename*=UTF-8''...
	if i := strings.Index(cd, "filename*=UTF-8''"); i >= 0 {
		s := cd[i+len("filename*=UTF-8''"):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return strings.Trim(s, "\"")
	}
	if i := strings.Index(cd, "filename="); i >= 0 {
		s := cd[i+len("filename="):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return strings.Trim(s, "\" ")
	}
	return ""
}

func extensionFromContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	switch {
	case strings.Contains(ct, "zip"):
		return ".zip"
	case strings.Contains(ct, "yaml"):
		return ".yaml"
	}
	return ""
}

func extensionFromURL(url string) string {
	ext := strings.ToLower(filepath.Ext(stripQuery(url)))
	switch ext {
	case ".zip", ".yaml", ".yml":
		return ext
	}
	return ""
}

func filenameFromURL(url string) string {
	base := filepath.Base(stripQuery(url))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stripQuery(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}

var safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

func sanitizeFilename(name string) string {
	name = safeNameRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return "scenario"
	}
	if len(name) > 96 {
		name = name[:96]
	}
	return name
}
