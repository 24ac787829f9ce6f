// Package parser turns rendered search-result markup into Listing records
// using the per-site rules from internal/sites and the text heuristics from
// internal/extract.
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"rent-monitor/internal/extract"
	"rent-monitor/internal/models"
	"rent-monitor/internal/sites"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const fallbackName = "名称未取得"

var bareManYenRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?万円`)

// ParseListings extracts every listing card from a rendered search-result
// page. Cards that carry no currency marker or no usable detail link are
// skipped silently; they are navigation, ads, or footer content, not errors.
func ParseListings(htmlContent, searchURL string) ([]models.Listing, error) {
	siteKey := sites.DetectSite(searchURL)
	rule := sites.RuleFor(siteKey)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards := collectCards(doc, rule.CardSelectors)
	if len(cards) == 0 {
		// Unknown layout: fall back to any generic container with visible
		// text. Recovers partial results at the cost of precision.
		cards = fallbackCards(doc)
	}

	base := pageOrigin(searchURL)

	var listings []models.Listing
	for _, card := range cards {
		if l, ok := buildListing(card, rule, siteKey, base); ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// Dedupe removes listings whose composite identity was already seen,
// keeping the first occurrence. Overlapping card selectors and buildings
// listed on multiple targets both produce such duplicates.
func Dedupe(listings []models.Listing) []models.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		uid := l.UniqueID()
		if seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, l)
	}
	return out
}

// collectCards applies each card selector in order and deduplicates the
// matches by parse-tree node identity, not text: two unrelated cards may
// carry identical text, while one node matched by two selectors must be
// kept once. First-encountered order is preserved.
func collectCards(doc *goquery.Document, selectors []string) []*goquery.Selection {
	var cards []*goquery.Selection
	seen := make(map[*html.Node]bool)
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if seen[node] {
				return
			}
			seen[node] = true
			cards = append(cards, s)
		})
	}
	return cards
}

func fallbackCards(doc *goquery.Document) []*goquery.Selection {
	var cards []*goquery.Selection
	doc.Find("li, div, article").Each(func(_ int, s *goquery.Selection) {
		if visibleText(s) != "" {
			cards = append(cards, s)
		}
	})
	return cards
}

func buildListing(card *goquery.Selection, rule sites.Rule, siteKey, base string) (models.Listing, bool) {
	text := visibleText(card)
	if text == "" {
		return models.Listing{}, false
	}

	// Primary noise filter: a real listing card always mentions money.
	if !strings.Contains(text, "賃") && !strings.Contains(text, "円") {
		return models.Listing{}, false
	}

	anchor := findDetailAnchor(card, rule.LinkTokens)
	if anchor == nil {
		return models.Listing{}, false
	}
	href := strings.TrimSpace(anchor.AttrOr("href", ""))
	if href == "" {
		return models.Listing{}, false
	}

	detailURL, ok := resolveURL(base, href)
	if !ok {
		return models.Listing{}, false
	}

	rent := extract.MoneyByLabel(text, "賃料", "家賃")
	if rent == 0 {
		// Many layouts state the rent as a bare 万円 token with no label.
		// On aggregate building cards this can pick up one unit's price
		// rather than a representative rent; accepted as noise.
		if m := bareManYenRe.FindString(text); m != "" {
			rent = extract.ToYen(m)
		}
	}
	mgmt := extract.MoneyByLabel(text, "管理費", "共益費")
	parking := extract.MoneyByLabel(text, "駐車場", "駐車料金")

	l := models.Listing{
		PropertyID:       extract.PropertyID(detailURL),
		SourceSite:       siteKey,
		Name:             pickName(card, rule.NameSelectors, anchor),
		DetailURL:        detailURL,
		RentYen:          rent,
		ManagementFeeYen: mgmt,
		ParkingFeeYen:    parking,
		TotalYen:         rent + mgmt + parking,
		Layout:           extract.Layout(text),
		AreaM2:           extract.AreaM2(text),
		NearestStation:   extract.Station(text),
	}
	if age, ok := extract.AgeYears(text); ok {
		l.AgeYears = &age
	}
	if walk, ok := extract.WalkMinutes(text, "徒歩"); ok {
		l.StationWalkMin = &walk
	}
	l.EnsureID()
	return l, true
}

// findDetailAnchor scans the card's links in document order and returns the
// first whose target contains one of the site's link tokens, falling back
// to the first link. Nil when the card has no links at all.
func findDetailAnchor(card *goquery.Selection, tokens []string) *goquery.Selection {
	anchors := card.Find("a[href]")
	if anchors.Length() == 0 {
		return nil
	}

	var found *goquery.Selection
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		for _, token := range tokens {
			if strings.Contains(href, token) {
				found = a
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}
	return anchors.First()
}

// pickName tries the site's name selectors in order, then the anchor's own
// text truncated to 80 runes. A listing name is never empty.
func pickName(card *goquery.Selection, selectors []string, anchor *goquery.Selection) string {
	for _, selector := range selectors {
		t := card.Find(selector).First()
		if t.Length() == 0 {
			continue
		}
		if name := visibleText(t); name != "" {
			return name
		}
	}

	if anchorText := visibleText(anchor); anchorText != "" {
		runes := []rune(anchorText)
		if len(runes) > 80 {
			return string(runes[:80])
		}
		return anchorText
	}

	return fallbackName
}

// visibleText joins the selection's text nodes with spaces and normalizes
// whitespace. goquery's Text() concatenates adjacent elements without a
// separator, which fuses tokens like "1K" and "20.5㎡" and breaks the
// pattern heuristics.
func visibleText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return extract.NormalizeSpace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// pageOrigin reduces a search URL to its scheme+host, the base that a
// card's relative detail links resolve against.
func pageOrigin(searchURL string) string {
	u, err := url.Parse(searchURL)
	if err != nil {
		return searchURL
	}
	return u.Scheme + "://" + u.Host
}

func resolveURL(base, href string) (string, bool) {
	baseU, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	refU, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return baseU.ResolveReference(refU).String(), true
}
