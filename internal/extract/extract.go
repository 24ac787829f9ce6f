// Package extract contains the text-to-value heuristics used to pull
// structured listing fields out of free-form Japanese rental-listing text.
// Every function here is total: malformed input yields the documented
// fallback value, never an error or panic.
package extract

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	manYenRe    = regexp.MustCompile(`[^0-9.]`)
	digitsRe    = regexp.MustCompile(`[^0-9]`)
	layoutRe    = regexp.MustCompile(`\b[1-4](?:LDK|DK|K)\b`)
	areaRe      = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:m2|㎡|m²)`)
	ageYearsRe  = regexp.MustCompile(`築\s*([0-9]+)\s*年`)
	ageMonthsRe = regexp.MustCompile(`築\s*([0-9]+)\s*ヶ月`)
	stationRe   = regexp.MustCompile(`[\w\x{3000}-\x{9fff}]+駅`)
	idSegmentRe = regexp.MustCompile(`/(?:chintai|rent|room|b)[_/\-]?([^/?.]+)`)
	idDigitsRe  = regexp.MustCompile(`[0-9]{6,}`)
	sanitizeRe  = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// NormalizeSpace collapses every run of whitespace to a single space and
// trims the result.
func NormalizeSpace(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ToYen parses a currency token into whole yen. A 万円 suffix multiplies by
// 10,000 (decimal amounts rounded to whole yen); a bare number with an
// optional 円 suffix is taken as-is after stripping comma separators. Empty,
// dash, and negative-looking tokens are 0, as is anything unparseable.
func ToYen(token string) int {
	token = strings.TrimSpace(strings.ReplaceAll(token, ",", ""))
	if token == "" || strings.HasPrefix(token, "-") {
		return 0
	}
	if strings.Contains(token, "万円") {
		num := manYenRe.ReplaceAllString(token, "")
		if num == "" {
			return 0
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		return int(math.Round(v * 10000))
	}
	num := digitsRe.ReplaceAllString(token, "")
	if num == "" {
		return 0
	}
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0
	}
	return v
}

// MoneyByLabel finds the first label (in priority order) that is followed by
// an amount token and returns that amount in yen. The amount may be a 万円
// decimal, a comma-grouped 円 figure, or a dash meaning none (0). Returns 0
// when no label matches.
func MoneyByLabel(text string, labels ...string) int {
	for _, label := range labels {
		re := regexp.MustCompile(regexp.QuoteMeta(label) + `[^0-9-]*([0-9]+(?:\.[0-9]+)?万円|[0-9,]+円|-)`)
		if m := re.FindStringSubmatch(text); m != nil {
			return ToYen(m[1])
		}
	}
	return 0
}

// Layout extracts a room-configuration code (1K〜4LDK or ワンルーム) as a
// whole token. Empty string when the text carries none.
func Layout(text string) string {
	if m := layoutRe.FindString(text); m != "" {
		return m
	}
	if strings.Contains(text, "ワンルーム") {
		return "ワンルーム"
	}
	return ""
}

// AreaM2 extracts a floor area in square meters (decimal number directly
// followed by an area unit). 0.0 when undetermined.
func AreaM2(text string) float64 {
	m := areaRe.FindStringSubmatch(text)
	if m == nil {
		return 0.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0.0
	}
	return v
}

// AgeYears extracts the building age in years. 新築 is 0 years. A 築Nヶ月
// pattern is converted to N/12 rounded to two decimals. The second return is
// false when the text states no age at all; callers must not confuse that
// with a genuine 0 (brand-new).
func AgeYears(text string) (float64, bool) {
	if strings.Contains(text, "新築") {
		return 0.0, true
	}
	if m := ageYearsRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return float64(v), true
	}
	if m := ageMonthsRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return math.Round(float64(v)/12.0*100) / 100, true
	}
	return 0.0, false
}

// WalkMinutes extracts "label N分" as integer minutes. The second return is
// false when the pattern is absent.
func WalkMinutes(text, label string) (int, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(label) + `\s*([0-9]+)\s*分`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// PropertyID derives a listing identifier from a detail URL path. It prefers
// the token after a known rental path segment (chintai/rent/room/b), then
// the first run of 6+ digits anywhere in the path, then the sanitized path
// itself. The result is only unique within one site.
func PropertyID(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	if m := idSegmentRe.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	if m := idDigitsRe.FindString(path); m != "" {
		return m
	}
	if id := strings.Trim(sanitizeRe.ReplaceAllString(path, "_"), "_"); id != "" {
		return id
	}
	return "unknown"
}

// Station extracts the longest run of word/ideographic characters ending in
// 駅. Empty string when the text names no station.
func Station(text string) string {
	if m := stationRe.FindString(text); m != "" {
		return NormalizeSpace(m)
	}
	return ""
}
