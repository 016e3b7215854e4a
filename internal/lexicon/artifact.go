package lexicon

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// A compiled artifact is a serialized snapshot of a Compiled lexicon:
// the word map, phrase list, declared category set and manifest. It is
// loadable without re-running the compiler, so process startup never
// depends on having the raw source file around.

const (
	artifactKind    = "modsentry-lexicon"
	artifactVersion = 1
)

var ErrBadArtifact = errors.New("unrecognized lexicon artifact")

type artifact struct {
	Kind       string            `json:"kind"`
	Version    int               `json:"version"`
	Categories []Category        `json:"categories"`
	Words      map[string]*Entry `json:"words"`
	Phrases    []*Entry          `json:"phrases"`
	Manifest   Manifest          `json:"manifest"`
}

// WriteArtifact serializes a compiled lexicon to path as JSON, gzipped
// when the path ends in ".gz".
func WriteArtifact(path string, c *Compiled) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteArtifact: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	a := artifact{
		Kind:       artifactKind,
		Version:    artifactVersion,
		Categories: c.Declared,
		Words:      c.Words,
		Phrases:    c.Phrases,
		Manifest:   c.Manifest,
	}
	if err := json.NewEncoder(w).Encode(&a); err != nil {
		return fmt.Errorf("WriteArtifact: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("WriteArtifact: %w", err)
		}
	}
	return f.Close()
}

// LoadArtifact restores a Compiled lexicon from a snapshot written by
// WriteArtifact.
func LoadArtifact(path string) (*Compiled, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadArtifact: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("LoadArtifact: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("LoadArtifact: %w", err)
	}
	if a.Kind != artifactKind || a.Version != artifactVersion {
		return nil, fmt.Errorf("LoadArtifact: %s: kind=%q version=%d: %w", path, a.Kind, a.Version, ErrBadArtifact)
	}

	c := &Compiled{
		Words:        a.Words,
		Phrases:      a.Phrases,
		MaxPhraseLen: 1,
		Declared:     a.Categories,
		Manifest:     a.Manifest,
	}
	if c.Words == nil {
		c.Words = map[string]*Entry{}
	}
	for _, p := range c.Phrases {
		if len(p.Tokens) == 0 {
			p.Tokens = strings.Fields(p.Surface)
		}
		if len(p.Tokens) > c.MaxPhraseLen {
			c.MaxPhraseLen = len(p.Tokens)
		}
	}
	// Restore the longest-first ordering the engine relies on.
	sort.SliceStable(c.Phrases, func(i, j int) bool {
		if len(c.Phrases[i].Tokens) != len(c.Phrases[j].Tokens) {
			return len(c.Phrases[i].Tokens) > len(c.Phrases[j].Tokens)
		}
		return c.Phrases[i].Surface < c.Phrases[j].Surface
	})
	return c, nil
}
