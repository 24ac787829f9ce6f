package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"rent-monitor/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query       string
	MinTotal    *int
	MaxTotal    *int
	Layouts     []string
	MaxWalkMin  *int
	MaxAgeYears *float64
	SourceSite  string
	SortBy      string
	Limit       int64
}

// FilterSearch performs search constrained by listing attributes
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Listing, error) {
	var filters []string

	if params.MinTotal != nil {
		filters = append(filters, fmt.Sprintf("total_yen >= %d", *params.MinTotal))
	}
	if params.MaxTotal != nil {
		filters = append(filters, fmt.Sprintf("total_yen <= %d", *params.MaxTotal))
	}

	if len(params.Layouts) > 0 {
		layoutFilters := make([]string, len(params.Layouts))
		for i, layout := range params.Layouts {
			layoutFilters[i] = fmt.Sprintf("layout = '%s'", layout)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(layoutFilters, " OR ")))
	}

	if params.MaxWalkMin != nil {
		filters = append(filters, fmt.Sprintf("station_walk_min <= %d", *params.MaxWalkMin))
	}
	if params.MaxAgeYears != nil {
		filters = append(filters, fmt.Sprintf("age_years <= %g", *params.MaxAgeYears))
	}
	if params.SourceSite != "" {
		filters = append(filters, fmt.Sprintf("source_site = '%s'", params.SourceSite))
	}

	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}
	if len(filters) > 0 {
		searchReq.Filter = strings.Join(filters, " AND ")
	}
	if params.SortBy != "" {
		searchReq.Sort = []string{params.SortBy}
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	var listings []models.Listing
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var listing models.Listing
		if err := json.Unmarshal(hitJSON, &listing); err != nil {
			continue
		}

		listings = append(listings, listing)
	}

	return listings, nil
}
