package policy

import (
	"testing"

	"github.com/modsentry/modsentry/internal/engine"
	"github.com/modsentry/modsentry/internal/lexicon"
)

func verdictFor(t *testing.T, text string, rows []lexicon.Row) *engine.Verdict {
	t.Helper()
	lex, err := lexicon.Compile(rows, lexicon.CompileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	v, err := engine.Match(text, lex, engine.DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDecide_CleanMessageIgnored(t *testing.T) {
	v := verdictFor(t, "have a great day everyone", nil)
	d := Decide(v, Defaults())
	if d.Action != ActionIgnore {
		t.Errorf("expected ignore, got %v", d.Action)
	}
}

func TestDecide_AlwaysFlagDeletesRegardlessOfThresholds(t *testing.T) {
	rows := []lexicon.Row{{Term: "slurword", Categories: []lexicon.Category{lexicon.CategoryPS}}}
	v := verdictFor(t, "slurword", rows)

	// Absurdly high thresholds must not save an always-flag hit.
	d := Decide(v, ChannelPolicy{DeleteThreshold: 1000, HeadsUpThreshold: 999})
	if d.Action != ActionDelete {
		t.Errorf("expected delete, got %v", d.Action)
	}
	if !d.AlwaysFlag {
		t.Error("decision must carry the always flag")
	}
}

func TestDecide_SeverityAtDeleteThreshold(t *testing.T) {
	rows := []lexicon.Row{{Term: "fool", Categories: []lexicon.Category{lexicon.CategoryAN}}}
	v := verdictFor(t, "fool", rows) // severity 1.0
	d := Decide(v, ChannelPolicy{DeleteThreshold: 1.0, HeadsUpThreshold: 0.5})
	if d.Action != ActionDelete {
		t.Errorf("expected delete at exact threshold, got %v", d.Action)
	}
}

func TestDecide_SeverityHeadsUp(t *testing.T) {
	rows := []lexicon.Row{{Term: "fool", Categories: []lexicon.Category{lexicon.CategoryAN}}}
	v := verdictFor(t, "fool", rows)
	d := Decide(v, ChannelPolicy{DeleteThreshold: 3.0, HeadsUpThreshold: 1.0})
	if d.Action != ActionHeadsUp {
		t.Errorf("expected heads_up, got %v", d.Action)
	}
}

func TestDecide_LabelOverThresholdTriggersHeadsUp(t *testing.T) {
	rows := []lexicon.Row{{Term: "smutword", Categories: []lexicon.Category{lexicon.CategoryQAS}}}
	v := verdictFor(t, "smutword", rows) // severity 1.5, obscene ~0.59

	// Severity is below both thresholds; the obscene label carries it.
	d := Decide(v, ChannelPolicy{DeleteThreshold: 10, HeadsUpThreshold: 5})
	if d.Action != ActionHeadsUp {
		t.Errorf("expected heads_up via label threshold, got %v", d.Action)
	}
	ld, ok := d.Labels[engine.LabelObscene]
	if !ok || !ld.Over {
		t.Errorf("expected obscene label marked over, got %+v", d.Labels)
	}
}

func TestDecide_LabelThresholdOverride(t *testing.T) {
	rows := []lexicon.Row{{Term: "smutword", Categories: []lexicon.Category{lexicon.CategoryQAS}}}
	v := verdictFor(t, "smutword", rows)

	pol := ChannelPolicy{
		DeleteThreshold:  10,
		HeadsUpThreshold: 5,
		LabelThresholds: map[string]float64{
			engine.LabelObscene:        0.99,
			engine.LabelToxicity:       0.99,
			engine.LabelSevereToxicity: 0.99,
			engine.LabelInsult:         0.99,
			engine.LabelThreat:         0.99,
			engine.LabelIdentityAttack: 0.99,
		},
	}
	d := Decide(v, pol)
	if d.Action != ActionIgnore {
		t.Errorf("raised label thresholds should quiet the message, got %v", d.Action)
	}
}

func TestDecide_ZeroThresholdsFallBackToDefaults(t *testing.T) {
	rows := []lexicon.Row{{Term: "fool", Categories: []lexicon.Category{lexicon.CategoryAN}}}
	v := verdictFor(t, "fool", rows) // severity 1.0 = default heads-up threshold
	d := Decide(v, ChannelPolicy{})
	if d.Action != ActionHeadsUp {
		t.Errorf("expected defaults applied, got %v", d.Action)
	}
}

func TestDecide_ThreatDeletes(t *testing.T) {
	v := verdictFor(t, "i'll kill you", nil)
	d := Decide(v, Defaults())
	if d.Action != ActionDelete {
		t.Errorf("expected delete for unconditional threat, got %v", d.Action)
	}
}

func TestDecide_MoreHitsNeverLowerTheAction(t *testing.T) {
	rows := []lexicon.Row{
		{Term: "fool", Categories: []lexicon.Category{lexicon.CategoryAN}},
		{Term: "dolt", Categories: []lexicon.Category{lexicon.CategoryAN}},
		{Term: "clown", Categories: []lexicon.Category{lexicon.CategoryAN}},
	}
	one := Decide(verdictFor(t, "fool", rows), Defaults())
	three := Decide(verdictFor(t, "fool dolt clown", rows), Defaults())
	if three.Action < one.Action {
		t.Errorf("action regressed with more hits: %v -> %v", one.Action, three.Action)
	}
	if three.Severity < one.Severity {
		t.Errorf("severity regressed with more hits: %v -> %v", one.Severity, three.Severity)
	}
}

func TestDecide_LabelsAlwaysReported(t *testing.T) {
	v := verdictFor(t, "nothing wrong here", nil)
	d := Decide(v, Defaults())
	if len(d.Labels) != len(engine.LabelNames) {
		t.Errorf("expected all %d labels reported, got %d", len(engine.LabelNames), len(d.Labels))
	}
	for name, ld := range d.Labels {
		if ld.Over {
			t.Errorf("label %s over threshold on a clean message", name)
		}
	}
}

func TestActionString(t *testing.T) {
	if ActionIgnore.String() != "ignore" ||
		ActionHeadsUp.String() != "heads_up" ||
		ActionDelete.String() != "delete" {
		t.Error("unexpected action names")
	}
	if Action(0).String() != "unspecified" {
		t.Errorf("zero action: got %q", Action(0).String())
	}
}
