package pje

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	caseNumberRe   = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}`)
	municipalityRe = regexp.MustCompile(`(?i)comarca[:\s]+([\p{L} ]+)`)
	popupURLRe     = regexp.MustCompile(`'([^']*DetalheProcessoConsultaPublica[^']*)'`)
)

const (
	detailLinkSelector  = `a[href*="DetalheProcessoConsultaPublica"]`
	defaultMunicipality = "Belo Horizonte"
	defaultCategory     = "tratamento"
	defaultEstimate     = 15000.0
)

// Listing is one hit on the portal result page.
type Listing struct {
	Number  string
	Subject string
	Text    string
	URL     string
	Term    string
}

type category struct {
	name     string
	keywords []string
	min, max float64
}

// Checked in order; the first keyword hit wins.
var categories = []category{
	{"cirurgia", []string{"cirurgia", "cirúrgico", "procedimento cirúrgico", "operação"}, 20000, 80000},
	{"medicamento", []string{"medicamento", "remédio", "fármaco", "fornecimento de medicamento"}, 5000, 30000},
	{"internacao", []string{"internação", "internacao", "leito", "vaga hospitalar"}, 10000, 50000},
	{"uti", []string{"uti", "unidade de terapia intensiva", "cti"}, 30000, 100000},
	{"quimioterapia", []string{"quimio", "quimioterapia", "oncologia", "câncer", "cancer"}, 15000, 60000},
	{"radioterapia", []string{"radio", "radioterapia"}, 10000, 40000},
	{"exame", []string{"exame", "diagnóstico", "ressonância", "tomografia"}, 1000, 5000},
	{"tratamento", []string{"tratamento", "terapia", "sessões"}, 5000, 25000},
}

var favorablePhrases = []string{
	"concedo", "defiro", "determino", "obrigação de fazer", "fornecimento",
	"procedente", "acolho", "julgo procedente", "condeno",
	"deverá fornecer", "deverá realizar",
}

// ParseListings extracts up to limit listings from a result page. Anchors
// without a recognizable case number are ignored.
func ParseListings(html, baseURL, term string, limit int) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}
	base, _ := url.Parse(baseURL)

	var out []Listing
	doc.Find(detailLinkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		number := caseNumberRe.FindString(text)
		if number == "" {
			return true
		}
		href, _ := s.Attr("href")
		out = append(out, Listing{
			Number:  number,
			Subject: subjectOf(text),
			Text:    text,
			URL:     resolveDetailURL(base, href),
			Term:    term,
		})
		return true
	})
	return out, nil
}

// ExtractText returns the whitespace-collapsed body text of a page.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

func subjectOf(text string) string {
	i := strings.LastIndex(text, " - ")
	if i < 0 {
		return "N/A"
	}
	return strings.TrimSpace(text[i+3:])
}

// resolveDetailURL handles both plain links and the portal's
// javascript:openPopUp('...') links.
func resolveDetailURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		m := popupURLRe.FindStringSubmatch(href)
		if m == nil {
			return href
		}
		href = m[1]
	}
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Classify maps free text to a procedure category and its estimated value
// (midpoint of the category range).
func Classify(text string) (string, float64) {
	lower := strings.ToLower(text)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name, (c.min + c.max) / 2
			}
		}
	}
	return defaultCategory, defaultEstimate
}

// IsFavorable reports whether text carries a ruling favorable to the patient.
func IsFavorable(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range favorablePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func ExtractMunicipality(text string) string {
	m := municipalityRe.FindStringSubmatch(text)
	if m == nil {
		return defaultMunicipality
	}
	if name := strings.TrimSpace(m[1]); name != "" {
		return name
	}
	return defaultMunicipality
}

// PatientHash is an irreversible identifier derived from the case number.
func PatientHash(caseNumber string) string {
	sum := sha256.Sum256([]byte(caseNumber))
	return hex.EncodeToString(sum[:])[:16]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
