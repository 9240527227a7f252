package speech

import (
	"fmt"
	"sort"
)

type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// Voice is an engine-level voice selector.
type Voice struct {
	ID           string `json:"id"`
	LanguageCode string `json:"language_code"`
	Gender       Gender `json:"gender"`
	// PollyVoice is the matching AWS Polly voice id.
	PollyVoice string `json:"polly_voice"`
}

var voices = map[string]Voice{
	"es-ES-Standard-A": {ID: "es-ES-Standard-A", LanguageCode: "es-ES", Gender: Female, PollyVoice: "Lucia"},
	"es-ES-Standard-B": {ID: "es-ES-Standard-B", LanguageCode: "es-ES", Gender: Male, PollyVoice: "Enrique"},
	"es-ES-Standard-C": {ID: "es-ES-Standard-C", LanguageCode: "es-ES", Gender: Female, PollyVoice: "Conchita"},
	"es-ES-Standard-D": {ID: "es-ES-Standard-D", LanguageCode: "es-ES", Gender: Female, PollyVoice: "Lucia"},
}

// DefaultVoice is used when a request names none.
const DefaultVoice = "es-ES-Standard-A"

// LookupVoice returns the voice with the given id.
func LookupVoice(id string) (Voice, error) {
	if id == "" {
		id = DefaultVoice
	}
	v, ok := voices[id]
	if !ok {
		return Voice{}, fmt.Errorf("unknown voice: %s", id)
	}
	return v, nil
}

// Voices lists the catalog sorted by id.
func Voices() []Voice {
	out := make([]Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
