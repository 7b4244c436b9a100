package timing

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// driverNumberPrefix matches the car/kart number some exports put before a driver's name, e.g. "12 - ".
var driverNumberPrefix = regexp.MustCompile(`^\d+\s*-\s+`)

// CleanDriverName trims a driver name and removes a leading "<number> - " prefix.
func CleanDriverName(name string) string {
	name = strings.TrimSpace(name)

	return strings.TrimSpace(driverNumberPrefix.ReplaceAllString(name, ""))
}

// JoinKey is the accent and case insensitive form of a driver name used to match
// timing data against a subcategory mapping.
func JoinKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	stripped, _, err := transform.String(t, name)

	if err != nil {
		stripped = name
	}

	return strings.ToLower(CleanDriverName(stripped))
}
