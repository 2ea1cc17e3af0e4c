package normalize

import (
	"regexp"
	"strings"
)

var nonLetterRe = regexp.MustCompile(`[^a-zA-Z\s]`)

var nameDesignations = []string{
	"jr", "sr", "iii", "ii", "iv", "pa", "gri", "crs", "abr",
	"srs", "crb", "green", "epro", "rea",
}

func normalizeNameForComparison(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = nonLetterRe.ReplaceAllString(n, "")
	for _, suffix := range nameDesignations {
		n = wordBoundary(suffix).ReplaceAllString(n, "")
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(n, " "))
}

// NamesMatch reports whether two agent names refer to the same person: an
// exact match after normalization, or a Levenshtein-based similarity ratio
// of at least 85 (0-100 scale). No fuzzy-matching library is available
// anywhere in the corpus, so the ratio itself is computed by
// levenshteinRatio below rather than a substring-containment shortcut;
// there is no substring fallback anywhere in the comparison.
func NamesMatch(name1, name2 string) bool {
	return namesMatchThreshold(name1, name2, 85)
}

func namesMatchThreshold(name1, name2 string, threshold int) bool {
	if name1 == "" || name2 == "" {
		return false
	}
	n1 := normalizeNameForComparison(name1)
	n2 := normalizeNameForComparison(name2)
	if n1 == n2 {
		return true
	}
	return levenshteinRatio(n1, n2) >= threshold
}

// levenshteinRatio computes a 0-100 similarity ratio in the style of
// thefuzz/fuzzywuzzy's ratio(): 100 - normalized edit distance, scaled by
// combined length.
func levenshteinRatio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	dist := levenshteinDistance(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	ratio := (1.0 - float64(dist)/float64(total)) * 100
	if ratio < 0 {
		ratio = 0
	}
	return int(ratio + 0.5)
}

func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				curr[j-1]+1,
				prev[j]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

var dreRe = regexp.MustCompile(`(?i)\s*DRE\s*#?\s*\d+`)
var licenseRe = regexp.MustCompile(`(?i)\s*(?:lic|license)\s*#?\s*\d+`)

// CleanName strips DRE/license-number suffixes and title-cases the result.
func CleanName(name string) string {
	if name == "" {
		return ""
	}
	n := strings.TrimSpace(name)
	n = dreRe.ReplaceAllString(n, "")
	n = licenseRe.ReplaceAllString(n, "")
	return strings.TrimSpace(strings.Title(strings.ToLower(n)))
}

var brokerageSuffixRe = regexp.MustCompile(`(?i)\b(LLC|INC|CORP|CORPORATION|CO|COMPANY|GROUP|ASSOCIATES|REALTORS)\b\.?`)

var brokerageAliases = []struct{ alias, full string }{
	{"KW", "KELLER WILLIAMS"},
	{"BHHS", "BERKSHIRE HATHAWAY"},
	{"CB", "COLDWELL BANKER"},
	{"C21", "CENTURY 21"},
}

// NormalizeBrokerage upper-cases a brokerage name, strips common corporate
// suffixes, and expands known brand abbreviations at the start of the
// string.
func NormalizeBrokerage(name string) string {
	if name == "" {
		return ""
	}
	n := strings.ToUpper(strings.TrimSpace(name))
	n = brokerageSuffixRe.ReplaceAllString(n, "")
	for _, a := range brokerageAliases {
		if re := regexp.MustCompile(`(?i)^` + a.alias + `\b`); re.MatchString(n) {
			n = re.ReplaceAllString(n, a.full)
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(n, " "))
}
