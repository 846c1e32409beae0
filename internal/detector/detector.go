// Package detector identifies the natural language of chapter text.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua language detector. Building one loads every
// language model lazily; reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// SameLanguage reports whether a and b are written in the same language.
// ok is false when either text cannot be classified.
func (d *Detector) SameLanguage(a, b string) (same bool, ok bool) {
	la, okA := d.Detect(a)
	lb, okB := d.Detect(b)
	if !okA || !okB {
		return false, false
	}
	return la == lb, true
}
