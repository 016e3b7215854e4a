package lexicon

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// The compiler and the matching engine must run the exact same
// normalization, otherwise compiled surfaces can never match message
// text. Both call Normalize below; there is no second implementation.

var (
	urlRE     = regexp.MustCompile(`https?://\S+`)
	mentionRE = regexp.MustCompile(`@\w+|<@!?\d+>`)
	// Apostrophes survive normalization so contractions ("i'm", "don't")
	// keep their shape for the heuristic layer.
	punctRE = regexp.MustCompile("[-_/\\\\.,;:!?*^~`\"“”\\[\\](){}<>]+")
	wsRE    = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, folds it to NFKD and strips combining
// marks (so "idiòta" and "idiota" compare equal), removes URLs and
// chat mentions, turns punctuation into spaces and collapses
// whitespace. Deterministic and locale-independent.
func Normalize(text string) string {
	t := strings.ToLower(text)
	t = norm.NFKD.String(t)
	t = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		if r == '’' { // curly apostrophe
			return '\''
		}
		return r
	}, t)
	t = urlRE.ReplaceAllString(t, " ")
	t = mentionRE.ReplaceAllString(t, " ")
	t = punctRE.ReplaceAllString(t, " ")
	t = wsRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Token is a single word in normalized text with its byte offsets,
// kept so match hits can report evidence spans.
type Token struct {
	Text  string
	Start int
	End   int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// Tokenize splits normalized text into word tokens, preserving byte
// offsets into the input. Leading and trailing apostrophes are trimmed
// from tokens ("'ello" -> "ello") but interior ones are kept ("don't").
func Tokenize(normalized string) []Token {
	var toks []Token
	start := -1
	for i, r := range normalized {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			toks = appendToken(toks, normalized, start, i)
			start = -1
		}
	}
	if start >= 0 {
		toks = appendToken(toks, normalized, start, len(normalized))
	}
	return toks
}

func appendToken(toks []Token, s string, start, end int) []Token {
	for start < end && s[start] == '\'' {
		start++
	}
	for end > start && s[end-1] == '\'' {
		end--
	}
	if start == end {
		return toks
	}
	return append(toks, Token{Text: s[start:end], Start: start, End: end})
}
