package config

import (
	"path/filepath"
	"testing"

	"github.com/cognicore/chatpulse/pkg/chatpulse/report"
)

func TestLoaderDefaults(t *testing.T) {
	loader := Loader{Config: Default()}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("default loader should succeed: %v", err)
	}
	if comp.Extractor == nil || comp.Builder == nil {
		t.Fatal("expected extractor and builder")
	}
	if comp.Stoplist.Len() != 179 {
		t.Errorf("expected the English list, got %d terms", comp.Stoplist.Len())
	}
	if comp.Format != report.FormatJSON {
		t.Errorf("expected json format, got %q", comp.Format)
	}
	if comp.TopN != 5 {
		t.Errorf("expected top_n 5, got %d", comp.TopN)
	}
}

func TestLoaderStoplistFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "stop.yaml", "terms:\n  - kubernetes\n  - docker\n")

	cfg := Default()
	cfg.Extractor.StoplistPath = path
	cfg.Extractor.ExtraStopwords = []string{" LOL "}

	comp, err := (&Loader{Config: cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Stoplist.Len() != 3 {
		t.Fatalf("expected 3 stopwords, got %v", comp.Stoplist.All())
	}
	if !comp.Stoplist.IsStop("lol") {
		t.Error("extra stopword should be lowercased and trimmed")
	}
	if comp.Stoplist.IsStop("the") {
		t.Error("a custom stoplist replaces the English list")
	}

	got, err := comp.Extractor.Extract([]string{"kubernetes docker helm charts", "helm charts"}, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Term != "helm charts" || got[0].Count != 2 {
		t.Errorf("unexpected topics %+v", got)
	}
}

func TestLoaderSnowball(t *testing.T) {
	cfg := Default()
	cfg.Extractor.Snowball = true

	comp, err := (&Loader{Config: cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !comp.Stoplist.Snowball() {
		t.Error("expected snowball stoplist")
	}
}

func TestLoaderMissingStoplist(t *testing.T) {
	cfg := Default()
	cfg.Extractor.StoplistPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := (&Loader{Config: cfg}).Load(); err == nil {
		t.Fatal("expected error on missing stoplist")
	}
}

func TestLoaderInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Extractor.Adjacency = "nope"

	if _, err := (&Loader{Config: cfg}).Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
