// Package sites holds the per-site extraction rules. Adding support for a
// new search site is a data change here, not a code change elsewhere.
package sites

import (
	"net/url"
	"strings"
)

// Rule bundles the locator patterns for one search site. The selector lists
// are ordered by precision; the collector tries them in order and the first
// list entry that yields matches wins for that purpose.
type Rule struct {
	Key           string
	Name          string
	CardSelectors []string
	NameSelectors []string
	LinkTokens    []string
}

const (
	KeySuumo   = "suumo"
	KeyHomes   = "homes"
	KeyGeneric = "generic"
)

var rules = map[string]Rule{
	KeySuumo: {
		Key:  KeySuumo,
		Name: "SUUMO",
		CardSelectors: []string{
			"li.cassetteitem",
			"div.cassetteitem",
			"li[class*='cassetteitem']",
			"div[class*='cassetteitem']",
		},
		NameSelectors: []string{
			".cassetteitem_content-title",
			".js-cassette_link_href",
		},
		LinkTokens: []string{"/chintai/"},
	},
	KeyHomes: {
		Key:  KeyHomes,
		Name: "HOME'S",
		CardSelectors: []string{
			"div.mod-mergeBuilding",
			"section.mod-mergeBuilding",
			"li.mod-mergeBuilding",
			"article",
			"li",
		},
		NameSelectors: []string{
			".mod-mergeBuilding__buildingName",
			".prg-buildingName",
			".moduleInner__title",
		},
		LinkTokens: []string{"/chintai/", "/room/", "/b-"},
	},
	KeyGeneric: {
		Key:  KeyGeneric,
		Name: "GENERIC",
		// Low-precision last resort for unknown site layouts
		CardSelectors: []string{"article", "li", "div"},
		NameSelectors: []string{"h2", "h3", ".title", ".name"},
		LinkTokens:    []string{"/chintai/", "/rent/", "/room/", "/b-"},
	},
}

// DetectSite maps a search URL to a site key by host-fragment match, in
// fixed priority order. Unknown hosts get the generic rule.
func DetectSite(searchURL string) string {
	u, err := url.Parse(searchURL)
	if err != nil {
		return KeyGeneric
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "suumo.jp"):
		return KeySuumo
	case strings.Contains(host, "homes.co.jp"), strings.Contains(host, "lifull"):
		return KeyHomes
	default:
		return KeyGeneric
	}
}

// RuleFor returns the extraction rule for a site key, falling back to the
// generic rule for unknown keys.
func RuleFor(key string) Rule {
	if r, ok := rules[key]; ok {
		return r
	}
	return rules[KeyGeneric]
}

// RuleForURL is a convenience for DetectSite + RuleFor.
func RuleForURL(searchURL string) Rule {
	return RuleFor(DetectSite(searchURL))
}
