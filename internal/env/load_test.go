package env

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	content := `# world overrides
SPHEREWORLD_WORKERS=4
export SPHEREWORLD_GRAVITY="0,-1.62,0"
SPHEREWORLD_LOG_FILE='logs/moon.txt'
SPHEREWORLD_MIXED="open'

not a pair
=orphan
`
	got, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := [][2]string{
		{"SPHEREWORLD_WORKERS", "4"},
		{"SPHEREWORLD_GRAVITY", "0,-1.62,0"},
		{"SPHEREWORLD_LOG_FILE", "logs/moon.txt"},
		{"SPHEREWORLD_MIXED", `"open'`},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SPHEREWORLD_WORKERS=4\nSPHEREWORLD_CELL_SIZE=2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SPHEREWORLD_WORKERS", "")
	t.Setenv("SPHEREWORLD_CELL_SIZE", "8")

	if err := Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := os.Getenv("SPHEREWORLD_WORKERS"); got != "4" {
		t.Errorf("SPHEREWORLD_WORKERS = %q, want %q", got, "4")
	}
	if got := os.Getenv("SPHEREWORLD_CELL_SIZE"); got != "8" {
		t.Errorf("SPHEREWORLD_CELL_SIZE = %q, want the existing %q", got, "8")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load() error = %v, want nil for a missing file", err)
	}
}
