package notify

import (
	"fmt"
	"strings"

	"rent-monitor/internal/models"
)

// groupDigits renders n with comma separators (85000 -> "85,000").
func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatAge(age *float64) string {
	if age == nil {
		return "不明"
	}
	if *age == float64(int(*age)) {
		return fmt.Sprintf("築%d年", int(*age))
	}
	return fmt.Sprintf("築%.2f年", *age)
}

func formatWalk(l models.Listing) string {
	if !l.WalkMinKnown() {
		return "徒歩不明"
	}
	return fmt.Sprintf("徒歩%d分", *l.StationWalkMin)
}

func formatListing(l models.Listing) string {
	var b strings.Builder

	fmt.Fprintf(&b, "・[%s] %s\n", l.SourceSite, l.Name)
	fmt.Fprintf(&b, "  合計: %s円 (家賃%s/管理費%s/駐車場%s)\n",
		groupDigits(l.TotalYen), groupDigits(l.RentYen),
		groupDigits(l.ManagementFeeYen), groupDigits(l.ParkingFeeYen))

	layout := l.Layout
	if layout == "" {
		layout = "不明"
	}
	area := "不明"
	if l.AreaM2 > 0 {
		area = fmt.Sprintf("%.1f㎡", l.AreaM2)
	}
	fmt.Fprintf(&b, "  間取り: %s / %s / %s\n", layout, area, formatAge(l.AgeYears))

	station := l.NearestStation
	if station == "" {
		station = "不明"
	}
	fmt.Fprintf(&b, "  最寄: %s %s\n", station, formatWalk(l))
	fmt.Fprintf(&b, "  URL: %s", l.DetailURL)

	return b.String()
}

// BuildNewListingsMessage renders the Slack text for a run that found
// fresh listings.
func BuildNewListingsMessage(fresh []models.Listing) string {
	var b strings.Builder

	fmt.Fprintf(&b, ":house: Rent Monitor 新着 %d 件\n", len(fresh))
	b.WriteString("[賃貸新着通知] 検索URLの新着物件があります\n")
	for _, l := range fresh {
		b.WriteString("\n")
		b.WriteString(formatListing(l))
		b.WriteString("\n")
	}

	return b.String()
}

// BuildNoNewMessage renders the Slack text for a run that completed but
// found nothing new.
func BuildNoNewMessage(fetched int) string {
	return fmt.Sprintf(":information_source: Rent Monitor 実行結果\n取得件数: %d\n新着件数: 0", fetched)
}

// BuildEmptyFetchMessage renders the Slack text for a run that fetched
// zero listings across every target, which usually means markup drift.
func BuildEmptyFetchMessage(targets int) string {
	return fmt.Sprintf(":warning: Rent Monitor 取得件数 0\n対象URL %d 件から物件を抽出できませんでした", targets)
}
