package blog

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector guesses the dominant language of post text.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector for the languages blog posts are
// expected in.
func NewLanguageDetector() *LanguageDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Korean, lingua.English, lingua.Japanese, lingua.Chinese).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LanguageDetector{detector: detector}
}

// Detect returns the ISO 639-1 code of text, or "" when unsure.
func (d *LanguageDetector) Detect(text string) string {
	if d == nil || d.detector == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
