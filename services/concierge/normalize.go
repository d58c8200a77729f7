// File: services/concierge/normalize.go
package concierge

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritic marks so "días" and "dias" compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeText lowercases, folds diacritics, maps punctuation to spaces and
// collapses whitespace. All intent matching runs on this form.
func normalizeText(s string) string {
	folded := strings.ToLower(foldDiacritics(s))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// equivalentText reports whether two free-text descriptions are the same up to
// case, diacritics and surrounding punctuation.
func equivalentText(a, b string) bool {
	return normalizeText(a) == normalizeText(b)
}

// numberWords covers the small counts users spell out instead of typing digits.
var numberWords = map[string]int{
	"un": 1, "uno": 1, "una": 1, "one": 1, "a": 1,
	"dos": 2, "two": 2,
	"tres": 3, "three": 3,
	"cuatro": 4, "four": 4,
	"cinco": 5, "five": 5,
	"seis": 6, "six": 6,
	"siete": 7, "seven": 7,
	"ocho": 8, "eight": 8,
	"nueve": 9, "nine": 9,
	"diez": 10, "ten": 10,
}

// extractInt returns the first integer token found in normalized text, either
// as digits or as a spelled-out number word.
func extractInt(normText string) (int, bool) {
	for _, tok := range strings.Fields(normText) {
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			return n, true
		}
		if n, ok := numberWords[tok]; ok {
			return n, true
		}
	}
	return 0, false
}

// extractDayNumber looks for an explicit "day N" / "dia N" reference. A bare
// number never counts as a day: in "replace the 2 cheapest restaurants" the 2
// is a quantity, not a target.
func extractDayNumber(normText string) (int, bool) {
	toks := strings.Fields(normText)
	for i, tok := range toks {
		if (tok == "day" || tok == "dia") && i+1 < len(toks) {
			if n, err := strconv.Atoi(toks[i+1]); err == nil && n > 0 {
				return n, true
			}
			if n, ok := numberWords[toks[i+1]]; ok {
				return n, true
			}
		}
	}
	return 0, false
}

var timeTokenRe = regexp.MustCompile(`\b\d{1,2}:\d{2}(?:\s?(?:am|pm))?|\b\d{1,2}\s?(?:am|pm|hrs|h)\b`)

// extractTimes pulls time-of-day tokens ("9:30", "10 am", "21h") out of
// normalized free text, in order of appearance.
func extractTimes(normText string) []string {
	return timeTokenRe.FindAllString(normText, -1)
}

var cityTokenRe = regexp.MustCompile(`\p{Lu}\p{L}*(?: \p{Lu}\p{L}*)*`)

// extractCityToken finds a capitalized city name in the RAW (non-normalized)
// turn text. The sentence-leading word is skipped so an initial verb such as
// "Agrega" is never mistaken for a city; the last remaining match wins, which
// handles multi-word names like "New York".
func extractCityToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	matches := cityTokenRe.FindAllStringIndex(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if matches[i][0] == 0 {
			continue
		}
		return raw[matches[i][0]:matches[i][1]], true
	}
	return "", false
}

// containsTerm reports whether normalized text contains the given term: exact
// token equality for single words, substring-on-word-boundary for phrases.
func containsTerm(normText, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+normText+" ", " "+term+" ")
	}
	for _, tok := range strings.Fields(normText) {
		if tok == term {
			return true
		}
	}
	return false
}

func containsAnyTerm(normText string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(normText, t) {
			return true
		}
	}
	return false
}
