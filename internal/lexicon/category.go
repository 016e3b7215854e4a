package lexicon

// Category is a short code classifying a type of harmful content,
// following the HurtLex taxonomy (e.g. PS = ethnic/origin slurs,
// ASM/ASF = male/female genitalia slurs, CDS = derogatory words).
type Category string

// Core lexicon categories. The compiler also accepts extension codes
// declared via CompileOptions; anything else is rejected at compile time.
const (
	CategoryPS  Category = "PS"  // negative stereotypes, ethnic slurs
	CategoryRCI Category = "RCI" // locations and demonyms
	CategoryPA  Category = "PA"  // professions and occupations
	CategoryDDF Category = "DDF" // physical disabilities and diversity
	CategoryDDP Category = "DDP" // cognitive disabilities and diversity
	CategoryDMC Category = "DMC" // moral and behavioral defects
	CategoryIS  Category = "IS"  // words related to social and economic disadvantage
	CategoryOR  Category = "OR"  // plants
	CategoryAN  Category = "AN"  // animals
	CategoryASM Category = "ASM" // male genitalia
	CategoryASF Category = "ASF" // female genitalia
	CategoryPR  Category = "PR"  // words related to prostitution
	CategoryOM  Category = "OM"  // words related to homosexuality
	CategoryQAS Category = "QAS" // descriptive words with potential negative connotations
	CategoryCDS Category = "CDS" // derogatory words
	CategoryRE  Category = "RE"  // felonies and words related to crime
	CategorySVP Category = "SVP" // words related to the seven deadly sins
)

// Heuristic category hints. These never appear in lexicon source files;
// they tag hits produced by the structural rule layer.
const (
	CategoryTHR Category = "THR" // threat framing
	CategorySTE Category = "STE" // stereotype framing
)

// coreCategories is the closed set accepted without explicit declaration.
var coreCategories = map[Category]struct{}{
	CategoryPS: {}, CategoryRCI: {}, CategoryPA: {}, CategoryDDF: {},
	CategoryDDP: {}, CategoryDMC: {}, CategoryIS: {}, CategoryOR: {},
	CategoryAN: {}, CategoryASM: {}, CategoryASF: {}, CategoryPR: {},
	CategoryOM: {}, CategoryQAS: {}, CategoryCDS: {}, CategoryRE: {},
	CategorySVP: {}, CategoryTHR: {}, CategorySTE: {},
}

// alwaysFlagCategories mandate action regardless of any severity threshold.
var alwaysFlagCategories = map[Category]struct{}{
	CategoryPS: {}, CategoryDDP: {}, CategoryDDF: {},
	CategoryCDS: {}, CategoryASM: {}, CategoryASF: {},
}

// IsAlwaysFlag reports whether any of the given categories bypasses
// threshold logic downstream.
func IsAlwaysFlag(cats []Category) bool {
	for _, c := range cats {
		if _, ok := alwaysFlagCategories[c]; ok {
			return true
		}
	}
	return false
}

func anyCategory(cats []Category, want ...Category) bool {
	for _, c := range cats {
		for _, w := range want {
			if c == w {
				return true
			}
		}
	}
	return false
}

// entryWeight assigns a severity weight to an entry from its merged
// category set. Base weight is 1.0; heavier classes add to it.
func entryWeight(cats []Category, phrase bool) float64 {
	w := 1.0
	if anyCategory(cats, CategoryDMC, CategoryQAS, CategorySVP, CategoryRE) {
		w += 0.5
	}
	if anyCategory(cats, CategoryASM, CategoryASF) {
		w += 1.0
	}
	if anyCategory(cats, CategoryPS, CategoryDDP, CategoryDDF, CategoryCDS) {
		w += 1.5
	}
	if phrase {
		w += 0.5
	}
	return w
}
