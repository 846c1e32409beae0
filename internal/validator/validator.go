// Package validator decides whether a completion is usable as chapter text.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/bookflow/internal/detector"
)

// ErrUnusable is wrapped by every rejection returned from Check.
var ErrUnusable = errors.New("unusable completion")

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without the drift check.
const minValidationLength = 20

// refusalPhrases mark a model declining the task instead of rewriting.
var refusalPhrases = []string{
	"i am unable to",
	"i'm unable to",
	"i cannot fulfill",
	"i can't fulfill",
	"i cannot help with",
	"i cannot provide",
	"as a large language model",
	"as an ai language model",
}

// Validator checks stage output. A nil detector disables the language drift check.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// NewWithoutDetection creates a Validator that only checks for empty output and refusals.
func NewWithoutDetection() *Validator {
	return &Validator{}
}

// Check returns nil when output is a usable rewrite of input.
//
// Output is rejected when it is empty, when it opens with a refusal, or when it
// is confidently written in a different language than input. Texts shorter than
// minValidationLength runes skip the language check.
func (v *Validator) Check(input, output string) error {
	text := strings.TrimSpace(output)
	if text == "" {
		return fmt.Errorf("%w: output is empty", ErrUnusable)
	}

	if phrase, ok := refusal(text); ok {
		return fmt.Errorf("%w: model refused (%q)", ErrUnusable, phrase)
	}

	if v.det == nil {
		return nil
	}
	src := strings.TrimSpace(input)
	if len([]rune(src)) < minValidationLength || len([]rune(text)) < minValidationLength {
		return nil
	}

	same, ok := v.det.SameLanguage(src, text)
	if ok && !same {
		srcLang, _ := v.det.DetectISO(src)
		outLang, _ := v.det.DetectISO(text)
		return fmt.Errorf("%w: expected %s but detected %s", ErrUnusable, srcLang, outLang)
	}
	return nil
}

// apologies may precede a refusal phrase, in this order.
var apologies = []string{"i'm sorry,", "i am sorry,", "sorry,", "but "}

// refusal reports whether text opens with a refusal phrase. Matching is
// anchored at the start, so a story that opens with quoted dialogue such as
// "I cannot provide for you," never matches.
func refusal(text string) (string, bool) {
	head := strings.ToLower(strings.TrimSpace(text))
	head = strings.ReplaceAll(head, "\u2019", "'")
	for _, a := range apologies {
		if strings.HasPrefix(head, a) {
			head = strings.TrimSpace(strings.TrimPrefix(head, a))
		}
	}
	for _, phrase := range refusalPhrases {
		if strings.HasPrefix(head, phrase) {
			return phrase, true
		}
	}
	return "", false
}
