package category

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mustTable(t *testing.T, cats ...Category) *Table {
	t.Helper()
	table, err := NewTable(cats)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestClassify(t *testing.T) {
	table := mustTable(t,
		Category{Name: "naturaleza", Keywords: []string{"montaña", "bosque", "río"}},
		Category{Name: "misterio", Keywords: []string{"sombra", "oscur"}},
		Category{Name: "ciudad", Keywords: []string{"calle"}},
	)
	c := NewClassifier("spanish")

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "keyword match", text: "Subimos la montaña al amanecer.", want: "naturaleza"},
		{name: "uppercase and accents", text: "LA MONTAÑA ERA ENORME", want: "naturaleza"},
		{name: "decomposed accents", text: "La montan\u0303a alta", want: "naturaleza"},
		{name: "substring stem", text: "Todo estaba oscuro y oscurecía.", want: "misterio"},
		{name: "strictly highest", text: "Una sombra en la calle, otra sombra en el bosque, sombras.", want: "misterio"},
		{name: "tie goes to first declared", text: "La sombra del bosque.", want: "naturaleza"},
		{name: "no match", text: "Hola. Mundo.", want: DefaultCategory},
		{name: "empty", text: "", want: DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(table, tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q (scores %v)", tt.text, got, tt.want, c.Scores(table, tt.text))
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable failed: %v", err)
	}
	c := NewClassifier("spanish")
	text := "La niebla cubría el castillo antiguo junto al río bajo la noche."
	first := c.Classify(table, text)
	for i := 0; i < 50; i++ {
		if got := c.Classify(table, text); got != first {
			t.Fatalf("classification changed between runs: %q vs %q", first, got)
		}
	}
}

func TestTokensDropStopWordsAndNonAlpha(t *testing.T) {
	c := NewClassifier("spanish")
	got := c.Tokens("El año 1999 fue de la montaña, ¡y el río3 creció!")
	want := []string{"año", "montaña", "creció"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %q, want %q", got, want)
	}
}

func TestNewTableAddsDefaultAndRejectsDuplicates(t *testing.T) {
	table := mustTable(t, Category{Name: "naturaleza"})
	if !table.Has(DefaultCategory) {
		t.Error("expected default category to be added")
	}
	if names := table.Names(); names[len(names)-1] != DefaultCategory {
		t.Errorf("default should be appended last, got %v", names)
	}

	if _, err := NewTable([]Category{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	os.WriteFile(path, []byte("categories:\n  - name: naturaleza\n    keywords: [montaña]\n"), 0644)

	store, err := NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	before := store.Snapshot()

	os.WriteFile(path, []byte("categories:\n  - name: ciudad\n    keywords: [calle]\n"), 0644)
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	after := store.Snapshot()

	if before.Has("ciudad") || !before.Has("naturaleza") {
		t.Error("old snapshot must not change")
	}
	if !after.Has("ciudad") {
		t.Error("new snapshot should contain reloaded category")
	}

	os.WriteFile(path, []byte("categories: [broken"), 0644)
	if err := store.Reload(); err == nil {
		t.Error("expected parse error")
	}
	if store.Snapshot() != after {
		t.Error("failed reload must keep previous snapshot")
	}
}
