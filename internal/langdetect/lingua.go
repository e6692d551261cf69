// Package langdetect resolves the "auto" source language with lingua.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the shortest sample worth detecting; shorter inputs are too ambiguous.
const minLetters = 6

// DefaultLanguages are the ISO 639-1 codes detection chooses between when none are configured.
var DefaultLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "nl", "pl", "ru", "uk",
	"tr", "ar", "zh", "ja", "ko", "hi", "sv", "cs", "el", "ro",
}

// Detector picks the most likely language of a text among a fixed set. Models for
// that set are loaded once, on Warm or on the first Detect.
type Detector struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

// New builds a Detector over codes. Unknown codes are ignored; with fewer than two
// usable codes DefaultLanguages is used instead.
func New(codes []string) *Detector {
	langs := resolve(codes)
	if len(langs) < 2 {
		langs = resolve(DefaultLanguages)
	}
	return &Detector{languages: langs}
}

func resolve(codes []string) []lingua.Language {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var langs []lingua.Language
	for _, l := range lingua.AllLanguages() {
		if wanted[strings.ToLower(l.IsoCode639_1().String())] {
			langs = append(langs, l)
		}
	}
	return langs
}

// Languages returns the lowercase ISO 639-1 codes the detector chooses between.
func (d *Detector) Languages() []string {
	codes := make([]string, len(d.languages))
	for i, l := range d.languages {
		codes[i] = strings.ToLower(l.IsoCode639_1().String())
	}
	return codes
}

// Warm loads the language models now so the first "auto" request does not pay for it.
func (d *Detector) Warm() {
	d.get()
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(d.languages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return d.detector
}

// Detect returns the lowercase ISO 639-1 code of text, or "" when detection is
// inconclusive.
func (d *Detector) Detect(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return ""
	}

	detected, exists := d.get().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

var defaultDetector = New(DefaultLanguages)

// DetectISO6391 detects with a shared Detector over DefaultLanguages.
func DetectISO6391(text string) string {
	return defaultDetector.Detect(text)
}
