package lexicon

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRows_TSVWithHeader(t *testing.T) {
	src := "id\tpos\tlemma\tcategory\n" +
		"1\tn\tidiot\tDMC\n" +
		"2\tn\tweasel\tAN\n" +
		"\t\t\t\n" +
		"3\tn\twaste of space\tCDS\n"
	path := writeSource(t, "lex.tsv", src)

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Term != "idiot" || len(rows[0].Categories) != 1 || rows[0].Categories[0] != CategoryDMC {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[2].Term != "waste of space" {
		t.Errorf("expected phrase term preserved, got %q", rows[2].Term)
	}
}

func TestReadRows_HeaderlessSimpleCSV(t *testing.T) {
	src := "idiot,DMC\nscum,CDS,always\n"
	path := writeSource(t, "lex.csv", src)

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].AlwaysFlag {
		t.Error("first row has no flags column value")
	}
	if !rows[1].AlwaysFlag {
		t.Error("expected always flag from third column")
	}
	if rows[1].Categories[0] != CategoryCDS {
		t.Errorf("expected CDS, got %v", rows[1].Categories)
	}
}

func TestReadRows_MultiCategoryColumn(t *testing.T) {
	src := "lemma\tcategories\nidiot\tDMC QAS\n"
	path := writeSource(t, "lex.tsv", src)

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Categories) != 2 {
		t.Fatalf("expected one row with two categories, got %+v", rows)
	}
}

func TestReadRows_RecoveryMode(t *testing.T) {
	// Header names the lemma column but not a category column, so codes
	// are recovered from code-shaped tokens; uncodeable rows are skipped.
	src := "id\tlemma\tnotes\n" +
		"1\tidiot\tcode PS here\n" +
		"2\tfool\tnothing recognizable\n"
	path := writeSource(t, "lex.tsv", src)

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 recoverable row, got %d: %+v", len(rows), rows)
	}
	if rows[0].Term != "idiot" || rows[0].Categories[0] != CategoryPS {
		t.Errorf("unexpected recovered row: %+v", rows[0])
	}
}

func TestReadRows_Gzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lex.tsv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("lemma\tcategory\nidiot\tDMC\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Term != "idiot" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestReadRows_MissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.tsv"), KnownCategories())
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadRows_CompilesEndToEnd(t *testing.T) {
	src := "lemma\tcategory\tflags\n" +
		"idiot\tDMC\t\n" +
		"scum\tCDS\talways\n" +
		"waste of space\tCDS\t\n"
	path := writeSource(t, "lex.tsv", src)

	rows, err := ReadRows(path, KnownCategories())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	c, err := Compile(rows, CompileOptions{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if c.Manifest.Terms != 2 || c.Manifest.Phrases != 1 {
		t.Errorf("expected 2 terms and 1 phrase, got %+v", c.Manifest)
	}
	if !c.Words["scum"].AlwaysFlag {
		t.Error("expected scum always-flagged")
	}
}
