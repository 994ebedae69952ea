// Package names normalizes human-supplied place names into catalog lookup
// keys and generates alternate spellings to retry a failed lookup with.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// expansions run in order after lowercasing.
var expansions = []struct {
	re  *regexp.Regexp
	out string
}{
	{regexp.MustCompile(`\bst\.\s*`), "saint "},
	{regexp.MustCompile(`\bdem\.\s*`), "democratic "},
	{regexp.MustCompile(`\brep\.\s*`), "republic "},
	{regexp.MustCompile(`\bis\.\s*`), "islands "},
	{regexp.MustCompile(`&`), " and "},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// aliases maps a whole normalized name onto the catalog's spelling. Values
// must not themselves be keys, or Canonical stops being idempotent.
var aliases = map[string]string{
	"britain":               "united kingdom",
	"great britain":         "united kingdom",
	"uk":                    "united kingdom",
	"u.k.":                  "united kingdom",
	"usa":                   "united states of america",
	"us":                    "united states of america",
	"u.s.":                  "united states of america",
	"u.s.a.":                "united states of america",
	"united states":         "united states of america",
	"america":               "united states of america",
	"burma":                 "myanmar",
	"czechia":               "czech republic",
	"ivory coast":           "cote d'ivoire",
	"east timor":            "timor-leste",
	"swaziland":             "eswatini",
	"macedonia":             "north macedonia",
	"republic of macedonia": "north macedonia",
	"russian federation":    "russia",
	"holland":               "netherlands",
	"the netherlands":       "netherlands",
	"republic of korea":     "south korea",
	"korea, republic of":    "south korea",
	"dr congo":              "democratic republic of congo",
	"drc":                   "democratic republic of congo",
	"uae":                   "united arab emirates",

	"democratic republic of the congo": "democratic republic of congo",
}

// prefixes collapse long official forms onto their short catalog name.
var prefixes = []struct {
	prefix string
	out    string
}{
	{"united kingdom of ", "united kingdom"},
	{"holy see", "vatican"},
}

var spaces = regexp.MustCompile(`\s+`)

// Canonical returns the lookup key for name. It is total and idempotent;
// names without an alias or prefix rule come back merely normalized.
func Canonical(name string) string {
	s := strings.ToLower(name)
	s = apostrophes.Replace(s)
	for _, e := range expansions {
		s = e.re.ReplaceAllString(s, e.out)
	}
	s = collapse(s)

	if a, ok := aliases[s]; ok {
		s = a
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p.prefix) {
			s = p.out
			break
		}
	}
	return s
}

// Variants returns alternate spellings of name in the order a lookup should
// try them: diacritics stripped, periods stripped, comma reordered and
// parentheticals removed. The input itself is never included and the result
// may be empty.
func Variants(name string) []string {
	var out []string
	seen := map[string]struct{}{name: {}}
	add := func(v string) {
		v = collapse(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(StripDiacritics(name))
	add(stripPeriods(name))
	for _, v := range reorderComma(name) {
		add(v)
	}
	add(stripParens(name))
	return out
}

// StripDiacritics decomposes s and drops combining marks: "Côte" -> "Cote".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// codeToken matches tokens such as "us.ca" that must keep their period.
var codeToken = regexp.MustCompile(`^[\p{L}\p{N}]{2}\.[\p{L}\p{N}]{2}$`)

func stripPeriods(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		if codeToken.MatchString(f) {
			continue
		}
		fields[i] = strings.ReplaceAll(f, ".", "")
	}
	return strings.Join(fields, " ")
}

// "korea, south" -> "south korea", "korea"
func reorderComma(s string) []string {
	head, tail, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	head, tail = strings.TrimSpace(head), strings.TrimSpace(tail)
	if head == "" || tail == "" {
		return nil
	}
	return []string{tail + " " + head, head}
}

var parens = regexp.MustCompile(`\s*\([^)]*\)`)

func stripParens(s string) string {
	if !strings.Contains(s, "(") {
		return s
	}
	return parens.ReplaceAllString(s, "")
}

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
