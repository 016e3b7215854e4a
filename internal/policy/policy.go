// Package policy turns engine verdicts into moderation actions using
// per-channel threshold configuration. The gate contract is simple and
// the engine guarantees make it safe: severity is monotonically
// non-decreasing in the number of hits, and the always-flag bit is
// sufficient on its own to justify action regardless of thresholds.
package policy

import (
	"github.com/modsentry/modsentry/internal/engine"
)

// Action is the moderation outcome for a single message.
type Action int

const (
	ActionIgnore Action = iota + 1
	ActionHeadsUp
	ActionDelete
)

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionHeadsUp:
		return "heads_up"
	case ActionDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// ChannelPolicy holds one channel's thresholds. Zero-valued severity
// thresholds fall back to the server defaults; label thresholds are
// optional per-label overrides.
type ChannelPolicy struct {
	DeleteThreshold  float64            `json:"delete_threshold"`
	HeadsUpThreshold float64            `json:"heads_up_threshold"`
	LabelThresholds  map[string]float64 `json:"label_thresholds,omitempty"`
}

// Defaults returns the server default policy.
func Defaults() ChannelPolicy {
	return ChannelPolicy{
		DeleteThreshold:  3.0,
		HeadsUpThreshold: 1.0,
	}
}

// DefaultLabelThresholds are applied when a channel policy doesn't
// override a label.
var DefaultLabelThresholds = map[string]float64{
	engine.LabelToxicity:       0.50,
	engine.LabelSevereToxicity: 0.40,
	engine.LabelInsult:         0.45,
	engine.LabelThreat:         0.35,
	engine.LabelObscene:        0.45,
	engine.LabelIdentityAttack: 0.35,
}

// labelThreshold resolves the effective threshold for a label.
func (p ChannelPolicy) labelThreshold(label string) float64 {
	if t, ok := p.LabelThresholds[label]; ok {
		return t
	}
	return DefaultLabelThresholds[label]
}

// LabelDecision explains one label's contribution to the decision.
type LabelDecision struct {
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Over      bool    `json:"over"`
}

// Decision is the gate's output for one verdict.
type Decision struct {
	Action     Action                   `json:"-"`
	AlwaysFlag bool                     `json:"always_flag"`
	Severity   float64                  `json:"severity"`
	Labels     map[string]LabelDecision `json:"labels"`
}

// Decide applies a channel policy to a verdict:
//
//	always_flag                      -> delete
//	severity >= delete threshold     -> delete
//	severity >= heads-up threshold,
//	or any label over its threshold  -> heads_up
//	otherwise                        -> ignore
func Decide(v *engine.Verdict, pol ChannelPolicy) Decision {
	defaults := Defaults()
	if pol.DeleteThreshold <= 0 {
		pol.DeleteThreshold = defaults.DeleteThreshold
	}
	if pol.HeadsUpThreshold <= 0 {
		pol.HeadsUpThreshold = defaults.HeadsUpThreshold
	}

	scores := v.Scores()
	labels := make(map[string]LabelDecision, len(engine.LabelNames))
	anyLabelOver := false
	for _, name := range engine.LabelNames {
		score := scores.Get(name)
		thr := pol.labelThreshold(name)
		over := score >= thr && score > 0
		anyLabelOver = anyLabelOver || over
		labels[name] = LabelDecision{Score: score, Threshold: thr, Over: over}
	}

	d := Decision{
		AlwaysFlag: v.AlwaysFlag,
		Severity:   v.Severity,
		Labels:     labels,
	}

	switch {
	case v.AlwaysFlag:
		d.Action = ActionDelete
	case v.Severity >= pol.DeleteThreshold:
		d.Action = ActionDelete
	case v.Severity >= pol.HeadsUpThreshold || anyLabelOver:
		d.Action = ActionHeadsUp
	default:
		d.Action = ActionIgnore
	}
	return d
}
