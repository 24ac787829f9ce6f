package parser

import (
	"testing"
)

const suumoPage = `
<html><body>
<ul>
  <li class="cassetteitem">
    <div class="cassetteitem_content-title">グランメゾン新宿</div>
    <div>賃料8.5万円 管理費5,000円 1K 20.5㎡ 築3年 新宿駅徒歩5分</div>
    <a href="/chintai/12345/">詳細を見る</a>
  </li>
</ul>
<div class="footer"><a href="/company/">会社概要</a></div>
</body></html>`

func TestParseListingsSuumoCard(t *testing.T) {
	listings, err := ParseListings(suumoPage, "https://suumo.jp/jj/chintai/ichiran/FR301FC001/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings; want 1", len(listings))
	}

	l := listings[0]
	if l.SourceSite != "suumo" {
		t.Errorf("SourceSite = %q; want suumo", l.SourceSite)
	}
	if l.PropertyID != "12345" {
		t.Errorf("PropertyID = %q; want 12345", l.PropertyID)
	}
	if l.UniqueID() != "suumo:12345" {
		t.Errorf("UniqueID = %q; want suumo:12345", l.UniqueID())
	}
	if l.Name != "グランメゾン新宿" {
		t.Errorf("Name = %q", l.Name)
	}
	if l.DetailURL != "https://suumo.jp/chintai/12345/" {
		t.Errorf("DetailURL = %q", l.DetailURL)
	}
	if l.RentYen != 85000 || l.ManagementFeeYen != 5000 || l.ParkingFeeYen != 0 {
		t.Errorf("money = %d/%d/%d; want 85000/5000/0", l.RentYen, l.ManagementFeeYen, l.ParkingFeeYen)
	}
	if l.TotalYen != l.RentYen+l.ManagementFeeYen+l.ParkingFeeYen {
		t.Errorf("TotalYen = %d; want sum %d", l.TotalYen, l.RentYen+l.ManagementFeeYen+l.ParkingFeeYen)
	}
	if l.Layout != "1K" {
		t.Errorf("Layout = %q; want 1K", l.Layout)
	}
	if l.AreaM2 != 20.5 {
		t.Errorf("AreaM2 = %v; want 20.5", l.AreaM2)
	}
	if l.AgeYears == nil || *l.AgeYears != 3.0 {
		t.Errorf("AgeYears = %v; want 3.0", l.AgeYears)
	}
	if l.NearestStation != "新宿駅" {
		t.Errorf("NearestStation = %q; want 新宿駅", l.NearestStation)
	}
	if l.StationWalkMin == nil || *l.StationWalkMin != 5 {
		t.Errorf("StationWalkMin = %v; want 5", l.StationWalkMin)
	}
	if l.ID == "" {
		t.Error("storage ID not set")
	}
}

func TestParseListingsRejectsCardsWithoutMoney(t *testing.T) {
	page := `<html><body>
	<li class="cassetteitem">ナビゲーション <a href="/chintai/999/">次のページ</a></li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings; want 0 (no currency marker)", len(listings))
	}
}

func TestParseListingsRejectsCardsWithoutLinks(t *testing.T) {
	page := `<html><body>
	<li class="cassetteitem">賃料8.5万円 リンクなし物件</li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings; want 0 (no anchor)", len(listings))
	}
}

func TestParseListingsBareRentFallback(t *testing.T) {
	// No 賃料/家賃 label anywhere, just a bare 万円 token.
	page := `<html><body>
	<li class="cassetteitem">
	  <div class="cassetteitem_content-title">メゾン中野</div>
	  7.2万円 1DK <a href="/chintai/777/">詳細</a>
	</li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings; want 1", len(listings))
	}
	if listings[0].RentYen != 72000 {
		t.Errorf("RentYen = %d; want 72000 via bare token fallback", listings[0].RentYen)
	}
}

func TestParseListingsNameFallsBackToAnchorText(t *testing.T) {
	page := `<html><body>
	<li class="cassetteitem">
	  賃料6万円 <a href="/chintai/424242/">コーポ阿佐ヶ谷 詳細はこちら</a>
	</li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings; want 1", len(listings))
	}
	if listings[0].Name != "コーポ阿佐ヶ谷 詳細はこちら" {
		t.Errorf("Name = %q; want anchor text", listings[0].Name)
	}
}

func TestParseListingsGenericRuleForUnknownHost(t *testing.T) {
	page := `<html><body>
	<div class="result">
	  家賃 55,000円 ワンルーム <a href="/rent/ab99/">apartment 99</a>
	</div>
	</body></html>`

	listings, err := ParseListings(page, "https://www.fudosan-unknown.example/search?q=tokyo")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) == 0 {
		t.Fatal("generic rule produced no listings")
	}
	l := Dedupe(listings)[0]
	if l.SourceSite != "generic" {
		t.Errorf("SourceSite = %q; want generic", l.SourceSite)
	}
	if l.PropertyID != "ab99" {
		t.Errorf("PropertyID = %q; want ab99", l.PropertyID)
	}
	if l.RentYen != 55000 {
		t.Errorf("RentYen = %d; want 55000", l.RentYen)
	}
	if l.Layout != "ワンルーム" {
		t.Errorf("Layout = %q; want ワンルーム", l.Layout)
	}
}

func TestParseListingsFallbackWhenNoSelectorMatches(t *testing.T) {
	// A recognized site whose markup matches none of its card selectors:
	// the collector falls back to generic containers with visible text.
	page := `<html><body>
	<div class="totally-new-layout">
	  賃料7万円 <a href="/chintai/808/">詳細</a>
	</div>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings; want 1 via fallback cards", len(listings))
	}
	if listings[0].PropertyID != "808" {
		t.Errorf("PropertyID = %q; want 808", listings[0].PropertyID)
	}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	// Two cards resolve to the same composite identity via different
	// detail-link phrasing (query string vs none).
	page := `<html><body>
	<li class="cassetteitem">
	  <div class="cassetteitem_content-title">ハイツ池袋</div>
	  賃料9万円 <a href="/chintai/5656/">詳細</a>
	</li>
	<li class="cassetteitem">
	  <div class="cassetteitem_content-title">ハイツ池袋（別枠）</div>
	  賃料9万円 <a href="/chintai/5656/?ref=list">詳細</a>
	</li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("builder emitted %d; want 2 before dedupe", len(listings))
	}

	deduped := Dedupe(listings)
	if len(deduped) != 1 {
		t.Fatalf("Dedupe kept %d; want 1", len(deduped))
	}
	if deduped[0].Name != "ハイツ池袋" {
		t.Errorf("Dedupe kept %q; want first occurrence", deduped[0].Name)
	}
}

func TestParseListingsUndeterminedFieldsStayAbsent(t *testing.T) {
	page := `<html><body>
	<li class="cassetteitem">
	  <div class="cassetteitem_content-title">レジデンス八王子</div>
	  賃料10万円 2LDK <a href="/chintai/31415/">詳細</a>
	</li>
	</body></html>`

	listings, err := ParseListings(page, "https://suumo.jp/list/")
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings; want 1", len(listings))
	}
	l := listings[0]
	if l.AgeYears != nil {
		t.Errorf("AgeYears = %v; want nil (undetermined)", *l.AgeYears)
	}
	if l.StationWalkMin != nil {
		t.Errorf("StationWalkMin = %v; want nil (undetermined)", *l.StationWalkMin)
	}
	if l.AreaM2 != 0.0 {
		t.Errorf("AreaM2 = %v; want 0.0 (undetermined)", l.AreaM2)
	}
	if l.Name == "" {
		t.Error("Name must never be empty")
	}
}
