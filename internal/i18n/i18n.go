// Package i18n holds the static UI string table for every supported language
// and the lookup used to resolve a key in the currently selected language.
// The table is embedded at build time from translations.yaml.
package i18n

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the language every lookup falls back to.
const DefaultLanguage = "english"

//go:embed translations.yaml
var rawTable []byte

// language is one entry of the table: the plain string keys plus the list of
// example chat questions shown on an empty transcript.
type language struct {
	ExampleQuestions []string          `yaml:"exampleQuestions"`
	Strings          map[string]string `yaml:",inline"`
}

// Table maps a language code to its strings.
type Table map[string]language

var table = mustLoad(rawTable)

func mustLoad(raw []byte) Table {
	t, err := Load(raw)
	if err != nil {
		panic(fmt.Sprintf("i18n: embedded table: %v", err))
	}
	return t
}

// Load parses a YAML translation table.
func Load(raw []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("i18n: parse table: %w", err)
	}
	if _, ok := t[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("i18n: table has no %q section", DefaultLanguage)
	}
	return t, nil
}

// T resolves key in lang, falling back to English and finally to the key itself.
func (t Table) T(lang, key string) string {
	if s, ok := t[lang].Strings[key]; ok && s != "" {
		return s
	}
	if s, ok := t[DefaultLanguage].Strings[key]; ok && s != "" {
		return s
	}
	return key
}

// Examples returns the example questions for lang, or the English ones.
func (t Table) Examples(lang string) []string {
	if q := t[lang].ExampleQuestions; len(q) > 0 {
		return q
	}
	return t[DefaultLanguage].ExampleQuestions
}

// Languages lists the language codes present in the table, sorted.
func (t Table) Languages() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Supported reports whether lang has its own section in the table.
func (t Table) Supported(lang string) bool {
	_, ok := t[lang]
	return ok
}

// T resolves key in lang against the embedded table.
func T(lang, key string) string { return table.T(lang, key) }

// Examples returns the embedded example questions for lang.
func Examples(lang string) []string { return table.Examples(lang) }

// Languages lists the embedded language codes.
func Languages() []string { return table.Languages() }

// Supported reports whether lang is in the embedded table.
func Supported(lang string) bool { return table.Supported(lang) }
