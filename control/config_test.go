package control

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/corepool/api"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("threads: 4\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Threads != 4 || cfg.Streams != 0 || !cfg.UseAffinity || cfg.Verbose {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfig_AllFields(t *testing.T) {
	data := []byte("streams: 2\nthreads: 8\nuse_affinity: false\nverbose: true\n")
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Streams: 2, Threads: 8, UseAffinity: false, Verbose: true}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	if _, err := ParseConfig([]byte("threads: 1001\n")); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("threads over max: err = %v", err)
	}
	if _, err := ParseConfig([]byte("streams: -1\n")); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("negative streams: err = %v", err)
	}
	if _, err := ParseConfig([]byte("workers: 3\n")); err == nil {
		t.Error("unknown field should be rejected")
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	src := Config{Streams: 1, Threads: 3, UseAffinity: true}
	data, err := src.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "pool.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != src {
		t.Errorf("loaded %+v, want %+v", got, src)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
