package engine

import (
	"math"

	"github.com/modsentry/modsentry/internal/lexicon"
)

// Label names, in the order they are reported.
const (
	LabelToxicity       = "toxicity"
	LabelSevereToxicity = "severe_toxicity"
	LabelInsult         = "insult"
	LabelThreat         = "threat"
	LabelObscene        = "obscene"
	LabelIdentityAttack = "identity_attack"
)

// LabelNames lists all labels in reporting order.
var LabelNames = []string{
	LabelToxicity, LabelSevereToxicity, LabelInsult,
	LabelThreat, LabelObscene, LabelIdentityAttack,
}

// LabelScores is a derived view of a verdict: per-label scores in 0..1
// for the explanation UI and per-label policy thresholds. All zeros
// when nothing matched.
type LabelScores struct {
	Toxicity       float64 `json:"toxicity"`
	SevereToxicity float64 `json:"severe_toxicity"`
	Insult         float64 `json:"insult"`
	Threat         float64 `json:"threat"`
	Obscene        float64 `json:"obscene"`
	IdentityAttack float64 `json:"identity_attack"`
}

// Get returns the score for a label name.
func (s LabelScores) Get(label string) float64 {
	switch label {
	case LabelToxicity:
		return s.Toxicity
	case LabelSevereToxicity:
		return s.SevereToxicity
	case LabelInsult:
		return s.Insult
	case LabelThreat:
		return s.Threat
	case LabelObscene:
		return s.Obscene
	case LabelIdentityAttack:
		return s.IdentityAttack
	default:
		return 0
	}
}

// ramp maps an unbounded weight sum into 0..1.
func ramp(x float64) float64 {
	const k = 0.6
	if x < 0 {
		x = 0
	}
	return 1.0 - math.Exp(-k*x)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// Scores maps the verdict's category weight sums into label scores.
// The mapping is conservative: lexicon mass ramps toxicity up to 0.85,
// always-flag categories push it to 0.98 outright, and severe toxicity
// requires multiple strong signals.
func (v *Verdict) Scores() LabelScores {
	perCat := make(map[lexicon.Category]float64)
	var lexHits bool
	for _, h := range v.Hits {
		if h.Entry == nil {
			continue
		}
		lexHits = true
		for _, c := range h.Categories {
			perCat[c] += h.Weight
		}
	}

	catSum := func(cats ...lexicon.Category) float64 {
		var total float64
		for _, c := range cats {
			total += perCat[c]
		}
		return total
	}

	var s LabelScores
	for _, h := range v.Hits {
		if h.Rule == nil {
			continue
		}
		switch h.Rule.Category {
		case lexicon.CategoryTHR:
			s.Threat = math.Max(s.Threat, 0.95)
		case lexicon.CategorySTE:
			s.IdentityAttack = math.Max(s.IdentityAttack, 0.80)
		}
	}

	if lexHits {
		var total float64
		for _, w := range perCat {
			total += w
		}
		s.Toxicity = math.Max(s.Toxicity, math.Min(0.85, ramp(total)))
		s.Obscene = math.Max(s.Obscene, ramp(catSum(
			lexicon.CategoryQAS, lexicon.CategorySVP, lexicon.CategoryRE, lexicon.CategoryDMC)))
		s.Insult = math.Max(s.Insult, ramp(catSum(
			lexicon.CategoryIS, lexicon.CategoryOM, lexicon.CategoryPR)))
		s.IdentityAttack = math.Max(s.IdentityAttack, ramp(catSum(
			lexicon.CategoryASM, lexicon.CategoryASF, lexicon.CategoryCDS,
			lexicon.CategoryRCI, lexicon.CategoryOR, lexicon.CategoryAN, lexicon.CategoryIS)))
	}

	for c := range perCat {
		if lexicon.IsAlwaysFlag([]lexicon.Category{c}) {
			s.Toxicity = math.Max(s.Toxicity, 0.98)
			break
		}
	}
	if catSum(lexicon.CategoryASM, lexicon.CategoryASF, lexicon.CategoryCDS) > 0 {
		s.IdentityAttack = math.Max(s.IdentityAttack, 0.90)
	}

	if s.Threat >= 0.9 {
		s.Toxicity = math.Max(s.Toxicity, 0.9)
	}

	if s.Toxicity >= 0.9 && (s.Obscene >= 0.6 || s.Threat >= 0.8 || s.IdentityAttack >= 0.8) {
		s.SevereToxicity = 0.85
	}

	s.Toxicity = round4(s.Toxicity)
	s.SevereToxicity = round4(s.SevereToxicity)
	s.Insult = round4(s.Insult)
	s.Threat = round4(s.Threat)
	s.Obscene = round4(s.Obscene)
	s.IdentityAttack = round4(s.IdentityAttack)
	return s
}
