package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"morphsplit/internal/adapter/fs"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Lemmatize(t *testing.T) {
	path := writeFile(t, "analyzer.tsv", "# comment\nhouses\thouse\tNNS\nhoused\thouse\nhouses\thousing\n\n")

	a, err := Load(fs.NewOpener(nil), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Len() != 2 {
		t.Errorf("expected 2 forms, got %d", a.Len())
	}
	if a.Path() != path {
		t.Errorf("expected path %s, got %s", path, a.Path())
	}

	lemma, ok := a.Lemmatize("houses")
	if !ok || lemma != "house" {
		t.Errorf("expected houses -> house (first analysis), got %q %v", lemma, ok)
	}
	if _, ok := a.Lemmatize("dogs"); ok {
		t.Error("expected unknown form to miss")
	}
}

func TestLemmatize_NilAnalyzer(t *testing.T) {
	var a *Analyzer
	if _, ok := a.Lemmatize("houses"); ok {
		t.Error("nil analyzer must not lemmatize")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(fs.NewOpener(nil), filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("expected error for missing analyzer")
	}

	path := writeFile(t, "bad.tsv", "houses\n")
	if _, err := Load(fs.NewOpener(nil), path); err == nil {
		t.Error("expected error for line without lemma")
	}
}
