package search

import (
	"strings"

	"rent-monitor/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "listings",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"detail_url",
		"nearest_station",
		"layout",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"source_site",
		"total_yen",
		"rent_yen",
		"layout",
		"area_m2",
		"age_years",
		"station_walk_min",
		"nearest_station",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"total_yen",
		"area_m2",
		"age_years",
		"station_walk_min",
		"created_at",
	})
	return err
}

// IndexListing indexes a single listing
func (s *SearchClient) IndexListing(listing *models.Listing) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Listing{*listing})
	return err
}

// IndexListings indexes multiple listings
func (s *SearchClient) IndexListings(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(listings)
	return err
}

// SearchRequest represents advanced search parameters
type SearchRequest struct {
	Query  string
	Limit  int64
	Offset int64
	Filter []string
	Sort   []string
	Facets []string
}

// SearchResult represents search results with facets
type SearchResult struct {
	Hits           []models.Listing
	TotalHits      int64
	Facets         map[string]interface{}
	ProcessingTime int64
}

// Search searches for listings with basic options
func (s *SearchClient) Search(query string, limit int64) ([]models.Listing, error) {
	result, err := s.AdvancedSearch(SearchRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// AdvancedSearch performs search with filters, sorting and facets
func (s *SearchClient) AdvancedSearch(req SearchRequest) (*SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if len(req.Filter) > 0 {
		searchReq.Filter = strings.Join(req.Filter, " AND ")
	}
	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}
	if len(req.Facets) > 0 {
		searchReq.Facets = req.Facets
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		listings = append(listings, parseListingFromHit(hit))
	}

	var facets map[string]interface{}
	if searchRes.FacetDistribution != nil {
		facets, _ = searchRes.FacetDistribution.(map[string]interface{})
	}

	return &SearchResult{
		Hits:           listings,
		TotalHits:      searchRes.EstimatedTotalHits,
		Facets:         facets,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseListingFromHit converts a search hit to a Listing
func parseListingFromHit(hit interface{}) models.Listing {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return models.Listing{}
	}

	listing := models.Listing{
		ID:             getString(hitMap, "id"),
		PropertyID:     getString(hitMap, "property_id"),
		SourceSite:     getString(hitMap, "source_site"),
		Name:           getString(hitMap, "name"),
		DetailURL:      getString(hitMap, "detail_url"),
		Layout:         getString(hitMap, "layout"),
		NearestStation: getString(hitMap, "nearest_station"),
	}

	if v, ok := hitMap["rent_yen"].(float64); ok {
		listing.RentYen = int(v)
	}
	if v, ok := hitMap["management_fee_yen"].(float64); ok {
		listing.ManagementFeeYen = int(v)
	}
	if v, ok := hitMap["parking_fee_yen"].(float64); ok {
		listing.ParkingFeeYen = int(v)
	}
	if v, ok := hitMap["total_yen"].(float64); ok {
		listing.TotalYen = int(v)
	}
	if v, ok := hitMap["area_m2"].(float64); ok {
		listing.AreaM2 = v
	}
	if v, ok := hitMap["age_years"].(float64); ok {
		age := v
		listing.AgeYears = &age
	}
	if v, ok := hitMap["station_walk_min"].(float64); ok {
		walk := int(v)
		listing.StationWalkMin = &walk
	}

	return listing
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
