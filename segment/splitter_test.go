package segment

import (
	"reflect"
	"strings"
	"testing"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "two sentences", input: "Hola. Mundo.", want: []string{"Hola.", "Mundo."}},
		{name: "no terminator", input: "  una sola frase sin punto  ", want: []string{"una sola frase sin punto"}},
		{name: "mixed terminators", input: "¿Quién anda ahí? ¡Nadie! Silencio...", want: []string{"¿Quién anda ahí?", "¡Nadie!", "Silencio..."}},
		{name: "empty fragments dropped", input: "Uno.. . Dos.", want: []string{"Uno..", "Dos."}},
		{name: "decimal kept", input: "Mide 3.5 metros. Fin.", want: []string{"Mide 3.5 metros.", "Fin."}},
		{name: "trailing fragment", input: "Hola. Mundo", want: []string{"Hola.", "Mundo"}},
		{name: "terminators only", input: " ... ", want: []string{"..."}},
		{name: "mixed terminators only", input: "?! …", want: []string{"?! …"}},
		{name: "whitespace only", input: "  \n\t ", want: nil},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sentences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitPreservesWordOrder(t *testing.T) {
	inputs := []string{
		"La noche cayó sobre el pueblo. Nadie salió de casa! ¿Por qué? Porque el viento aullaba",
		"Una línea.\nOtra línea.\n\nY una más.",
		"sin puntuación alguna",
	}
	for _, input := range inputs {
		for _, grouped := range []bool{false, true} {
			s := &Splitter{Grouped: grouped, CharCap: 40}
			segments := s.Split(input)
			if len(segments) == 0 {
				t.Fatalf("expected at least one segment for %q", input)
			}
			for _, seg := range segments {
				if strings.TrimSpace(seg) == "" {
					t.Errorf("empty segment for %q", input)
				}
			}
			if got, want := words(strings.Join(segments, " ")), words(input); !reflect.DeepEqual(got, want) {
				t.Errorf("word order changed: got %q want %q", got, want)
			}
		}
	}
}

func TestGroupedRespectsCap(t *testing.T) {
	s := &Splitter{Grouped: true, CharCap: 30}
	got := s.Split("Uno dos tres. Cuatro cinco. Seis siete ocho nueve diez once doce trece. Fin.")
	want := []string{
		"Uno dos tres. Cuatro cinco.",
		"Seis siete ocho nueve diez once doce trece.",
		"Fin.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSegmentsAreOneIndexed(t *testing.T) {
	segs := NewSplitter().Segments("Hola. Mundo.")
	if len(segs) != 2 || segs[0].Index != 1 || segs[1].Index != 2 {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '.' || r == '!' || r == '?' || r == '…'
	})
}
