package lexicon

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompile_MergesDuplicateSurfaces(t *testing.T) {
	rows := []Row{
		{Term: "Idiot", Categories: []Category{CategoryDMC}},
		{Term: "idiot", Categories: []Category{CategoryQAS}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, ok := c.Words["idiot"]
	if !ok {
		t.Fatal("expected merged entry for idiot")
	}
	if !reflect.DeepEqual(e.Categories, []Category{CategoryDMC, CategoryQAS}) {
		t.Errorf("expected sorted union of categories, got %v", e.Categories)
	}
	if e.Weight != 1.5 {
		t.Errorf("expected weight 1.5, got %v", e.Weight)
	}
	if c.Manifest.Terms != 1 {
		t.Errorf("expected 1 term in manifest, got %d", c.Manifest.Terms)
	}
	if len(c.Manifest.Merged) != 1 || c.Manifest.Merged[0] != "idiot" {
		t.Errorf("expected merge recorded in manifest, got %v", c.Manifest.Merged)
	}
}

func TestCompile_AlwaysFlagFromCategory(t *testing.T) {
	rows := []Row{{Term: "slurword", Categories: []Category{CategoryPS}}}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := c.Words["slurword"]
	if !e.AlwaysFlag {
		t.Error("PS entries must be always-flag")
	}
	if e.Weight != 2.5 {
		t.Errorf("expected weight 2.5, got %v", e.Weight)
	}
}

func TestCompile_AlwaysFlagFromRowFlag(t *testing.T) {
	rows := []Row{{Term: "weasel", Categories: []Category{CategoryAN}, AlwaysFlag: true}}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := c.Words["weasel"]
	if !e.AlwaysFlag {
		t.Error("row-level always flag must survive compilation")
	}
	if e.Weight != 1.0 {
		t.Errorf("AN carries base weight, got %v", e.Weight)
	}
}

func TestCompile_PhrasesLongestFirst(t *testing.T) {
	rows := []Row{
		{Term: "waste of space", Categories: []Category{CategoryDMC}},
		{Term: "kill yourself right now", Categories: []Category{CategoryDMC}},
		{Term: "kill yourself", Categories: []Category{CategoryDMC}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Manifest.Phrases != 3 {
		t.Fatalf("expected 3 phrases, got %d", c.Manifest.Phrases)
	}
	if c.MaxPhraseLen != 4 {
		t.Errorf("expected max phrase length 4, got %d", c.MaxPhraseLen)
	}
	lens := []int{len(c.Phrases[0].Tokens), len(c.Phrases[1].Tokens), len(c.Phrases[2].Tokens)}
	if lens[0] != 4 || lens[1] != 3 || lens[2] != 2 {
		t.Errorf("expected longest-first order, got token counts %v", lens)
	}
	if c.Phrases[0].Weight != 2.0 {
		t.Errorf("expected phrase weight 2.0 (base + DMC + phrase bonus), got %v", c.Phrases[0].Weight)
	}
}

func TestCompile_GeneratesInflections(t *testing.T) {
	rows := []Row{{Term: "idiot", Categories: []Category{CategoryDMC}}}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := c.Words["idiots"]
	if !ok {
		t.Fatal("expected plural variant idiots")
	}
	if v.Kind != KindInflection {
		t.Errorf("expected inflection kind, got %v", v.Kind)
	}
	if v.Root != "idiot" {
		t.Errorf("expected root idiot, got %q", v.Root)
	}
	if v.Weight != c.Words["idiot"].Weight {
		t.Error("variant must inherit the root's weight")
	}
	if v.Canonical() != "idiot" {
		t.Errorf("canonical surface should be the root, got %q", v.Canonical())
	}
}

func TestCompile_ExactBeatsInflection(t *testing.T) {
	rows := []Row{
		{Term: "idiot", Categories: []Category{CategoryDMC}},
		{Term: "idiots", Categories: []Category{CategoryPS}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := c.Words["idiots"]
	if e.Kind != KindExact {
		t.Errorf("explicit row must win over derived variant, got kind %v", e.Kind)
	}
	if !reflect.DeepEqual(e.Categories, []Category{CategoryPS}) {
		t.Errorf("expected the explicit row's categories, got %v", e.Categories)
	}
	if !e.AlwaysFlag {
		t.Error("explicit PS row must keep its always flag")
	}
}

func TestCompile_InflectionCollisionFirstRootWins(t *testing.T) {
	// "mope" and "mop" both derive "moping"; input order decides.
	rows := []Row{
		{Term: "mope", Categories: []Category{CategoryAN}},
		{Term: "mop", Categories: []Category{CategoryAN}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := c.Words["moping"]
	if v == nil || v.Root != "mope" {
		t.Fatalf("expected moping rooted at mope, got %+v", v)
	}
	// moped, moping, moper and mopest are all shared.
	if len(c.Manifest.Collisions) != 4 {
		t.Errorf("expected 4 collisions in manifest, got %v", c.Manifest.Collisions)
	}
}

func TestCompile_EmptyTermRejected(t *testing.T) {
	rows := []Row{{Term: "!!!", Categories: []Category{CategoryDMC}}}
	_, err := Compile(rows, CompileOptions{})
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow, got %v", err)
	}
}

func TestCompile_MissingCategoryRejected(t *testing.T) {
	rows := []Row{{Term: "idiot"}}
	_, err := Compile(rows, CompileOptions{})
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow, got %v", err)
	}
}

func TestCompile_UnknownCategoryRejected(t *testing.T) {
	rows := []Row{
		{Term: "fine", Categories: []Category{CategoryDMC}},
		{Term: "broken", Categories: []Category{"ZZZ"}},
	}
	_, err := Compile(rows, CompileOptions{})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCompile_ExtraCategoriesAccepted(t *testing.T) {
	rows := []Row{{Term: "custom", Categories: []Category{"XE"}}}
	c, err := Compile(rows, CompileOptions{ExtraCategories: []Category{"XE"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Words["custom"]; !ok {
		t.Error("expected entry under extension category")
	}
}

func TestCompile_InvalidExtraCategoryCode(t *testing.T) {
	_, err := Compile(nil, CompileOptions{ExtraCategories: []Category{"x1"}})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory for malformed code, got %v", err)
	}
}

func TestCompile_NormalizesTerms(t *testing.T) {
	rows := []Row{{Term: "  Idiòta ", Categories: []Category{CategoryDMC}}}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Words["idiota"]; !ok {
		t.Error("expected term normalized to idiota")
	}
}

func TestCompile_TrimsEdgeApostrophesLikeTokenize(t *testing.T) {
	rows := []Row{
		{Term: "'hood", Categories: []Category{CategoryIS}},
		{Term: "the 'hood rats'", Categories: []Category{CategoryCDS}},
		{Term: "don't", Categories: []Category{CategoryQAS}},
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := c.Words["'hood"]; ok {
		t.Error("surface 'hood kept its leading apostrophe, no token can match it")
	}
	if _, ok := c.Words["hood"]; !ok {
		t.Error("expected edge apostrophe trimmed to surface hood")
	}
	if len(c.Phrases) != 1 {
		t.Fatalf("expected 1 phrase, got %+v", c.Phrases)
	}
	if c.Phrases[0].Surface != "the hood rats" {
		t.Errorf("expected phrase surface trimmed per token, got %q", c.Phrases[0].Surface)
	}
	if !reflect.DeepEqual(c.Phrases[0].Tokens, []string{"the", "hood", "rats"}) {
		t.Errorf("unexpected phrase tokens: %v", c.Phrases[0].Tokens)
	}
	// Interior apostrophes survive, matching Tokenize.
	if _, ok := c.Words["don't"]; !ok {
		t.Error("expected interior apostrophe preserved in don't")
	}
}

func TestCompile_Deterministic(t *testing.T) {
	rows := []Row{
		{Term: "idiot", Categories: []Category{CategoryDMC, CategoryQAS}},
		{Term: "waste of space", Categories: []Category{CategoryCDS}},
		{Term: "mope", Categories: []Category{CategoryAN}},
		{Term: "mop", Categories: []Category{CategoryAN}},
	}
	first, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		c, err := Compile(rows, CompileOptions{})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !reflect.DeepEqual(c.Manifest, first.Manifest) {
			t.Fatalf("run %d: manifest differs", i)
		}
		if !reflect.DeepEqual(c.Words, first.Words) {
			t.Fatalf("run %d: word map differs", i)
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	rows := []Row{
		{Term: "idiot", Categories: []Category{CategoryDMC}},
		{Term: "fool", Categories: []Category{CategoryQAS}},
		{Term: "weasel", Categories: []Category{CategoryAN}},
		{Term: "waste of space", Categories: []Category{CategoryCDS}},
		{Term: "patsy", Categories: []Category{CategoryIS}},
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(rows, CompileOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
