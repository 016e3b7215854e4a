package lexicon

import "testing"

func TestNormalize_LowercasesAndStripsAccents(t *testing.T) {
	got := Normalize("IDIÒTA")
	if got != "idiota" {
		t.Errorf("expected %q, got %q", "idiota", got)
	}
}

func TestNormalize_StripsURLsAndMentions(t *testing.T) {
	got := Normalize("check https://example.com/abc @someone <@!12345> now")
	if got != "check now" {
		t.Errorf("expected %q, got %q", "check now", got)
	}
}

func TestNormalize_PunctuationBecomesSpace(t *testing.T) {
	got := Normalize("you,fool!! (really)")
	if got != "you fool really" {
		t.Errorf("expected %q, got %q", "you fool really", got)
	}
}

func TestNormalize_KeepsApostrophes(t *testing.T) {
	// Curly apostrophes fold to straight ones so contraction-shaped
	// heuristic patterns keep working.
	got := Normalize("I’m sure you DON'T")
	if got != "i'm sure you don't" {
		t.Errorf("expected %q, got %q", "i'm sure you don't", got)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize("  so   much \t space \n here  ")
	if got != "so much space here" {
		t.Errorf("expected %q, got %q", "so much space here", got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	in := "Yoù'Re   a FOOL, @friend!"
	first := Normalize(in)
	for i := 0; i < 10; i++ {
		if got := Normalize(in); got != first {
			t.Fatalf("run %d: got %q, first run gave %q", i, got, first)
		}
	}
}

func TestTokenize_ByteOffsets(t *testing.T) {
	norm := "kill you now"
	toks := Tokenize(norm)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(toks))
	}
	want := []struct {
		text       string
		start, end int
	}{
		{"kill", 0, 4},
		{"you", 5, 8},
		{"now", 9, 12},
	}
	for i, w := range want {
		if toks[i].Text != w.text || toks[i].Start != w.start || toks[i].End != w.end {
			t.Errorf("token %d: got %q [%d,%d), want %q [%d,%d)",
				i, toks[i].Text, toks[i].Start, toks[i].End, w.text, w.start, w.end)
		}
		if norm[toks[i].Start:toks[i].End] != w.text {
			t.Errorf("token %d: offsets do not slice back to %q", i, w.text)
		}
	}
}

func TestTokenize_TrimsEdgeApostrophes(t *testing.T) {
	toks := Tokenize("'ello don't '")
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Text != "ello" {
		t.Errorf("expected leading apostrophe trimmed, got %q", toks[0].Text)
	}
	if toks[1].Text != "don't" {
		t.Errorf("expected interior apostrophe kept, got %q", toks[1].Text)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if toks := Tokenize(""); len(toks) != 0 {
		t.Errorf("expected no tokens, got %v", toks)
	}
}

func BenchmarkNormalize(b *testing.B) {
	msg := "Hey @mod check https://example.com ... I’m pretty sure they're ALL terrible, right?!"
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Normalize(msg)
	}
}
