// Package normalizer cleans source records and derives the accent-free
// fields used for searching. Every function is pure and idempotent.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"CaseSync/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchKey strips diacritics, lowercases and trims s.
// "São Paulo" -> "sao paulo".
func SearchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// Municipality trims and title-cases a city name.
func Municipality(s string) string {
	s = collapseSpaces(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// Procedure trims s and upper-cases the first letter, lower-casing the rest.
func Procedure(s string) string {
	s = collapseSpaces(s)
	if s == "" {
		return ""
	}
	lower := cases.Lower(language.BrazilianPortuguese).String(s)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}

// NormalizeCase returns a cleaned copy of raw; raw itself is not modified.
func NormalizeCase(raw *model.RawCase) *model.NormalizedCase {
	out := &model.NormalizedCase{RawCase: *raw}
	out.CaseNumber = strings.TrimSpace(raw.CaseNumber)
	out.PatientHash = strings.TrimSpace(raw.PatientHash)
	out.Court = strings.TrimSpace(raw.Court)
	out.Jurisdiction = strings.TrimSpace(raw.Jurisdiction)
	out.Procedure = Procedure(raw.Procedure)
	out.Municipality = Municipality(raw.Municipality)
	out.ProcedureNormalized = SearchKey(out.Procedure)
	out.MunicipalityNormalized = SearchKey(out.Municipality)
	if out.Status == "" {
		out.Status = model.CaseStatusOpen
	}
	if raw.Meta != nil {
		out.Meta = make(map[string]any, len(raw.Meta))
		for k, v := range raw.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
