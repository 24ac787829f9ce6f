package sites

import "testing"

func TestDetectSite(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://suumo.jp/jj/chintai/ichiran/FR301FC001/", KeySuumo},
		{"https://www.homes.co.jp/chintai/tokyo/list/", KeyHomes},
		{"https://rent.lifull.example/search", KeyHomes},
		{"https://www.ukiuki-estate.example/list", KeyGeneric},
		{"://bad url", KeyGeneric},
	}

	for _, tt := range tests {
		if got := DetectSite(tt.url); got != tt.want {
			t.Errorf("DetectSite(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestRuleForUnknownKeyFallsBack(t *testing.T) {
	r := RuleFor("no-such-site")
	if r.Key != KeyGeneric {
		t.Errorf("RuleFor fallback = %q; want %q", r.Key, KeyGeneric)
	}
	if len(r.CardSelectors) == 0 || len(r.LinkTokens) == 0 {
		t.Error("generic rule must carry selectors and link tokens")
	}
}
