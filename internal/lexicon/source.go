package lexicon

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Source reading follows the shape of real HurtLex lemma files:
// tab/CSV rows with or without a header, optionally gzipped. With an
// explicit category column, codes are passed through verbatim and the
// compiler rejects unknown ones. Without one, category codes are
// recovered from code-shaped upper-case tokens anywhere in the row and
// rows with no recognizable code are skipped.

var codeTokenRE = regexp.MustCompile(`\b([A-Z]{2,4})\b`)
var catSplitRE = regexp.MustCompile(`[\s,;/]+`)

// KnownCategories builds the recognized category set: the core codes
// plus any extras the caller declares.
func KnownCategories(extra ...Category) map[Category]struct{} {
	known := make(map[Category]struct{}, len(coreCategories)+len(extra))
	for c := range coreCategories {
		known[c] = struct{}{}
	}
	for _, c := range extra {
		known[c] = struct{}{}
	}
	return known
}

// ReadRows parses a lexicon source file into raw rows for Compile.
func ReadRows(path string, known map[Category]struct{}) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadRows: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("ReadRows: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return parseRows(r, known)
}

func parseRows(r io.Reader, known map[Category]struct{}) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parseRows: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(string(data)))
	cr.Comma = sniffDelimiter(string(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parseRows: %w", err)
	}

	// Drop fully blank records.
	rows := records[:0]
	for _, rec := range records {
		for _, field := range rec {
			if strings.TrimSpace(field) != "" {
				rows = append(rows, rec)
				break
			}
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	termIdx, catsIdx, flagsIdx := -1, -1, -1
	if hasHeader(rows[0]) {
		for i, name := range rows[0] {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "lemma", "lexeme", "term":
				termIdx = i
			case "category", "categories":
				catsIdx = i
			case "flags":
				flagsIdx = i
			}
		}
		rows = rows[1:]
	}

	var out []Row
	for _, rec := range rows {
		row, ok := parseRow(rec, termIdx, catsIdx, flagsIdx, known)
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func parseRow(rec []string, termIdx, catsIdx, flagsIdx int, known map[Category]struct{}) (Row, bool) {
	var row Row

	// Term: the named column when present, otherwise the first field
	// containing a letter.
	if termIdx >= 0 && termIdx < len(rec) {
		row.Term = strings.TrimSpace(rec[termIdx])
	} else {
		for _, field := range rec {
			if strings.IndexFunc(field, isLetter) >= 0 {
				row.Term = strings.TrimSpace(field)
				break
			}
		}
	}

	explicitCats := catsIdx >= 0
	if !explicitCats && termIdx < 0 && len(rec) >= 2 {
		// Headerless simple format: term, category[, flags].
		row.Term = strings.TrimSpace(rec[0])
		catsIdx = 1
		explicitCats = true
		if len(rec) >= 3 {
			flagsIdx = 2
		}
	}

	if explicitCats && catsIdx < len(rec) {
		for _, tok := range catSplitRE.Split(strings.TrimSpace(rec[catsIdx]), -1) {
			if tok == "" {
				continue
			}
			row.Categories = append(row.Categories, Category(strings.ToUpper(tok)))
		}
	} else if !explicitCats {
		// Recovery mode: pull known code tokens from anywhere in the row.
		line := strings.Join(rec, " ")
		seen := map[Category]struct{}{}
		for _, m := range codeTokenRE.FindAllStringSubmatch(line, -1) {
			c := Category(m[1])
			if _, ok := known[c]; !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			row.Categories = append(row.Categories, c)
		}
		if len(row.Categories) == 0 {
			return Row{}, false // nothing recognizable in this row
		}
	}

	if flagsIdx >= 0 && flagsIdx < len(rec) {
		switch strings.ToLower(strings.TrimSpace(rec[flagsIdx])) {
		case "always", "always_flag", "flag":
			row.AlwaysFlag = true
		}
	}

	return row, row.Term != ""
}

func hasHeader(rec []string) bool {
	for _, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "lemma", "lexeme", "term", "category", "categories", "pos", "stereotype", "id", "flags":
			return true
		}
	}
	return false
}

func sniffDelimiter(sample string) rune {
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	switch {
	case strings.ContainsRune(sample, '\t'):
		return '\t'
	case strings.ContainsRune(sample, ','):
		return ','
	default:
		return ';'
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
