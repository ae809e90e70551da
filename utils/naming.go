package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	camelBound = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	lower      = cases.Lower(language.Und)
	upper      = cases.Upper(language.Und)
)

// ParamCase turns "My Project" or "myProject" into "my-project".
func ParamCase(s string) string {
	s = camelBound.ReplaceAllString(s, "$1-$2")
	s = nonAlnum.ReplaceAllString(lower.String(s), "-")
	return strings.Trim(s, "-")
}

// ConstantCase turns "my project" into "MY_PROJECT".
func ConstantCase(s string) string {
	return upper.String(strings.ReplaceAll(ParamCase(s), "-", "_"))
}

// IsValidHid reports whether s can be used as a project hid: lower case letters,
// digits and single hyphens, starting with a letter.
func IsValidHid(s string) bool {
	return validHid.MatchString(s)
}

var validHid = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// TruncateString shortens s to at most maxLength runes, ending it with "..." when
// there is room for one.
func TruncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:max(maxLength, 0)])
	}
	return string(r[:maxLength-3]) + "..."
}
