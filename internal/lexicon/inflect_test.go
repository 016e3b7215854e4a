package lexicon

import (
	"reflect"
	"testing"
)

func TestInflections_RegularRoot(t *testing.T) {
	got := inflections("idiot", DefaultInflectionRules)
	want := []string{"idiots", "idioted", "idioting", "idioter", "idiotest"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInflections_FinalE(t *testing.T) {
	got := inflections("dunce", DefaultInflectionRules)
	want := []string{"dunces", "dunced", "duncing", "duncer", "duncest"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInflections_ConsonantYPlural(t *testing.T) {
	got := inflections("patsy", DefaultInflectionRules)
	if len(got) == 0 || got[0] != "patsies" {
		t.Fatalf("expected patsies first, got %v", got)
	}
	for _, v := range got {
		if v == "patsys" {
			t.Error("consonant+y root must not produce a bare -s plural")
		}
	}
}

func TestInflections_SibilantPlural(t *testing.T) {
	got := inflections("wretch", DefaultInflectionRules)
	found := false
	for _, v := range got {
		if v == "wretches" {
			found = true
		}
		if v == "wretchs" {
			t.Error("sibilant root must not produce a bare -s plural")
		}
	}
	if !found {
		t.Errorf("expected wretches in %v", got)
	}
}

func TestInflections_ShortRootSkipped(t *testing.T) {
	// Short roots explode into accidental collisions, so they never inflect.
	if got := inflections("as", DefaultInflectionRules); got != nil {
		t.Errorf("expected no variants for short root, got %v", got)
	}
}

func TestInflections_ContractionSkipped(t *testing.T) {
	if got := inflections("don't", DefaultInflectionRules); got != nil {
		t.Errorf("expected no variants for contraction, got %v", got)
	}
}

func TestInflectionRule_NoSelfVariant(t *testing.T) {
	r := InflectionRule{Name: "noop", Strip: 1, Append: "t"}
	if got := r.Apply("idiot"); got != "" {
		t.Errorf("rule reproducing the root must return empty, got %q", got)
	}
}

func TestInflectionRule_StripLongerThanRoot(t *testing.T) {
	r := InflectionRule{Name: "deep", Strip: 5, Append: "x"}
	if got := r.Apply("fool"); got != "" {
		t.Errorf("expected empty when strip exceeds root, got %q", got)
	}
}
