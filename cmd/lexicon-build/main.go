// Command lexicon-build compiles a raw lexicon source file (HurtLex-style
// TSV/CSV, optionally gzipped) into the artifact the server loads.
//
//	lexicon-build -src hurtlex_en.tsv -out lexicon.json.gz
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/modsentry/modsentry/internal/lexicon"
)

type categoryFlags []string

func (c *categoryFlags) String() string { return strings.Join(*c, ",") }

func (c *categoryFlags) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*c = append(*c, strings.ToUpper(part))
		}
	}
	return nil
}

func main() {
	var (
		srcPath  = flag.String("src", "", "lexicon source file (tsv/csv, .gz ok)")
		outPath  = flag.String("out", "lexicon.json.gz", "output artifact path (.gz for gzip)")
		minTerms = flag.Int("min-terms", 1, "refuse to write an artifact with fewer entries")
		force    = flag.Bool("force", false, "overwrite an existing artifact")
		extras   categoryFlags
	)
	flag.Var(&extras, "category", "extra category code to accept (repeatable or comma-separated)")
	flag.Parse()

	if *srcPath == "" {
		fmt.Fprintln(os.Stderr, "lexicon-build: -src is required")
		flag.Usage()
		os.Exit(2)
	}
	if !*force {
		if _, err := os.Stat(*outPath); err == nil {
			fmt.Fprintf(os.Stderr, "lexicon-build: %s exists, use -force to overwrite\n", *outPath)
			os.Exit(1)
		}
	}

	extraCats := make([]lexicon.Category, len(extras))
	for i, code := range extras {
		extraCats[i] = lexicon.Category(code)
	}

	known := lexicon.KnownCategories(extraCats...)
	rows, err := lexicon.ReadRows(*srcPath, known)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexicon-build: read %s: %v\n", *srcPath, err)
		os.Exit(1)
	}
	fmt.Printf("read %d rows from %s\n", len(rows), *srcPath)

	compiled, err := lexicon.Compile(rows, lexicon.CompileOptions{ExtraCategories: extraCats})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexicon-build: compile: %v\n", err)
		os.Exit(1)
	}

	m := compiled.Manifest
	total := len(compiled.Words) + len(compiled.Phrases)
	if total < *minTerms {
		fmt.Fprintf(os.Stderr, "lexicon-build: compiled %d entries, below -min-terms %d\n", total, *minTerms)
		os.Exit(1)
	}

	fmt.Printf("compiled %d terms, %d phrases, %d inflected variants\n",
		m.Terms, m.Phrases, m.Inflections)

	cats := make([]lexicon.Category, 0, len(m.PerCategory))
	for c := range m.PerCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		fmt.Printf("  %-4s %6d\n", c, m.PerCategory[c])
	}
	if len(m.Merged) > 0 {
		fmt.Printf("merged %d duplicate surfaces\n", len(m.Merged))
	}
	if len(m.Collisions) > 0 {
		fmt.Printf("dropped %d inflection collisions\n", len(m.Collisions))
	}

	if err := lexicon.WriteArtifact(*outPath, compiled); err != nil {
		fmt.Fprintf(os.Stderr, "lexicon-build: write %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *outPath)
}
