package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func compileFixture(t *testing.T) *Compiled {
	t.Helper()
	rows := []Row{
		{Term: "idiot", Categories: []Category{CategoryDMC}},
		{Term: "scum", Categories: []Category{CategoryCDS}},
		{Term: "kill yourself", Categories: []Category{CategoryDMC}},
		{Term: "waste of space here", Categories: []Category{CategoryCDS}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestArtifact_RoundTrip(t *testing.T) {
	c := compileFixture(t)
	path := filepath.Join(t.TempDir(), "lexicon.json")

	if err := WriteArtifact(path, c); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(loaded.Words) != len(c.Words) {
		t.Errorf("word count changed: %d != %d", len(loaded.Words), len(c.Words))
	}
	if loaded.MaxPhraseLen != c.MaxPhraseLen {
		t.Errorf("max phrase length changed: %d != %d", loaded.MaxPhraseLen, c.MaxPhraseLen)
	}
	if !reflect.DeepEqual(loaded.Declared, c.Declared) {
		t.Errorf("declared categories changed: %v != %v", loaded.Declared, c.Declared)
	}
	if !reflect.DeepEqual(loaded.Manifest, c.Manifest) {
		t.Error("manifest changed across round trip")
	}
	// Longest-first phrase order must survive the round trip.
	for i := 1; i < len(loaded.Phrases); i++ {
		if len(loaded.Phrases[i-1].Tokens) < len(loaded.Phrases[i].Tokens) {
			t.Fatalf("phrase order broken at %d", i)
		}
	}
}

func TestArtifact_GzipRoundTrip(t *testing.T) {
	c := compileFixture(t)
	path := filepath.Join(t.TempDir(), "lexicon.json.gz")

	if err := WriteArtifact(path, c); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := loaded.Words["idiot"]; !ok {
		t.Error("expected idiot entry after gzip round trip")
	}
}

func TestLoadArtifact_WrongKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.json")
	if err := os.WriteFile(path, []byte(`{"kind":"something-else","version":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadArtifact(path)
	if !errors.Is(err, ErrBadArtifact) {
		t.Errorf("expected ErrBadArtifact, got %v", err)
	}
}

func TestLoadArtifact_WrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"kind":"modsentry-lexicon","version":99}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadArtifact(path)
	if !errors.Is(err, ErrBadArtifact) {
		t.Errorf("expected ErrBadArtifact, got %v", err)
	}
}

func TestLoadArtifact_Missing(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for missing artifact")
	}
}

func TestLoadArtifact_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadArtifact(path); err == nil {
		t.Error("expected error for unparseable artifact")
	}
}
