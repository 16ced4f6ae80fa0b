package detect

import (
	"fmt"
	"regexp"
	"strings"
)

// Keyword must appear on a stopover page, compared case-insensitively.
const Keyword = "objectifs"

// Suffix is the literal that follows the separator after a stopover code.
const Suffix = "Bilan"

// codePattern matches "CDG-Bilan", "CDG - Bilan" and "[CDG]-Bilan".
// The code letters are case-sensitive: "cdg-Bilan" is not a stopover token.
var codePattern = regexp.MustCompile(`\[?\b([A-Z]{3})\]?\s*-\s*` + Suffix + `\b`)

// Stopover is a page identified as a stopover report.
type Stopover struct {
	Code      string `json:"code"`
	PageIndex int    `json:"page_index"`
}

// PageNumber returns the 1-based page number.
func (s Stopover) PageNumber() int { return s.PageIndex + 1 }

func (s Stopover) String() string {
	return fmt.Sprintf("%s (page %d)", s.Code, s.PageNumber())
}

// Diagnosis breaks a match down into its two conditions.
type Diagnosis struct {
	Code           string `json:"code,omitempty"`
	HasKeyword     bool   `json:"has_keyword"`
	IsStopoverPage bool   `json:"is_stopover_page"`
}

// Match reports the stopover code of a page text. Both the code token and
// the keyword must be present; with several code tokens the leftmost wins.
func Match(text string) (string, bool) {
	code, ok := findCode(text)
	if !ok || !containsKeyword(text) {
		return "", false
	}
	return code, true
}

// Inspect evaluates both conditions independently.
func Inspect(text string) Diagnosis {
	code, _ := findCode(text)
	has := containsKeyword(text)
	return Diagnosis{
		Code:           code,
		HasKeyword:     has,
		IsStopoverPage: code != "" && has,
	}
}

func findCode(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func containsKeyword(text string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(Keyword))
}
