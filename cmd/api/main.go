package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"rent-monitor/internal/config"
	"rent-monitor/internal/database"
	"rent-monitor/internal/fetch"
	"rent-monitor/internal/handlers"
	"rent-monitor/internal/models"
	"rent-monitor/internal/monitor"
	"rent-monitor/internal/notify"
	"rent-monitor/internal/ratelimit"
	"rent-monitor/internal/scheduler"
	"rent-monitor/internal/search"
	"rent-monitor/internal/seenstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	db           *database.DB
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	appConfig    *config.Config
	rateLimiter  *ratelimit.Limiter
	appScheduler *scheduler.Scheduler
	runner       *monitor.Runner
)

func main() {
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Database selection mirrors the config: MySQL gets GORM, anything
	// else goes through the plain postgres driver.
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "postgres")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			portOrDefault(mysqlCfg.Port, "DB_PORT", 3306),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "rent_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "rent_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "rent_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		db, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			portOrDefault(pgCfg.Port, "DB_PORT", 5432),
			getEnvOrConfig(pgCfg.User, "DB_USER", "rent_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "rent_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "rent_db"),
			pgCfg.SSLMode,
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}

	searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

	// Wait for Meilisearch to be ready
	time.Sleep(2 * time.Second)

	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	rateLimiter = ratelimit.New(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	runner = buildRunner()

	if len(appConfig.Monitor.SearchURLs) > 0 {
		appScheduler = scheduler.NewScheduler(runner, appConfig)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	} else {
		log.Println("No search URLs configured, scheduler not started")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("CORS_ORIGIN", "http://localhost:5176")},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)
	r.GET("/api/listings", getListings)
	r.GET("/api/listings/:id", getListing)

	r.POST("/api/monitor/run", rateLimitMiddleware(), triggerMonitorRun)
	r.GET("/api/ratelimit/stats", getRateLimitStats)

	r.GET("/api/search", searchListings)
	r.POST("/api/search/advanced", advancedSearchListings)
	r.POST("/api/search/reindex", reindexAllListings)
	r.GET("/api/filter", filterListings)

	if gormDB != nil {
		adminHandler := handlers.NewAdminHandler(gormDB.DB(), appScheduler)

		admin := r.Group("/api/admin")
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/activity", adminHandler.GetRecentActivity)
			admin.GET("/price-distribution", adminHandler.GetPriceDistribution)
			admin.POST("/monitor/trigger", adminHandler.TriggerMonitor)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildRunner assembles the monitoring runner with the configured
// fetcher and the DB/search archive hooks.
func buildRunner() *monitor.Runner {
	var fetcher fetch.Fetcher
	if appConfig.Fetch.UseBrowser {
		fetcher = fetch.NewBrowserFetcher(fetch.BrowserConfig{
			ExecPath: appConfig.Fetch.BrowserExecPath,
			Timeout:  appConfig.Fetch.GetTimeout(),
		})
	} else {
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPConfig{
			Timeout:      appConfig.Fetch.GetTimeout(),
			MaxRetries:   appConfig.Fetch.MaxRetries,
			RetryDelay:   appConfig.Fetch.GetRetryDelay(),
			RequestDelay: appConfig.Fetch.GetRequestDelay(),
		})
	}

	var archiver monitor.Archiver
	if appConfig.Monitor.ArchiveToDB {
		if gormDB != nil {
			archiver = gormDB
		} else if db != nil {
			archiver = db
		} else {
			log.Println("Warning: archive_to_db enabled but no database connected")
		}
	}

	var indexer monitor.Indexer
	if appConfig.Monitor.IndexToMeili {
		if searchClient != nil {
			indexer = searchClient
		} else {
			log.Println("Warning: index_to_meili enabled but Meilisearch unavailable")
		}
	}

	return monitor.NewRunner(monitor.RunnerConfig{
		Fetcher:       fetcher,
		Notifier:      notify.NewSlackClient(appConfig.Slack.WebhookURL),
		Store:         seenstore.New(appConfig.Monitor.SeenIDsPath),
		SearchURLs:    appConfig.Monitor.SearchURLs,
		NotifyOnNoNew: appConfig.Slack.NotifyOnNoNew,
		StopOnError:   appConfig.Monitor.StopOnError,
		Archiver:      archiver,
		Indexer:       indexer,
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getListings(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "fetched_at")

	var listings []models.Listing
	var err error
	if gormDB != nil {
		listings, err = gormDB.GetListingsWithSort(sortBy)
	} else {
		listings, err = db.GetAllListings()
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, listings)
}

func getListing(c *gin.Context) {
	id := c.Param("id")

	var listing *models.Listing
	var err error
	if gormDB != nil {
		listing, err = gormDB.GetListingByID(id)
	} else {
		listing, err = db.GetListingByID(id)
	}

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// triggerMonitorRun kicks off a monitoring pass in the background
func triggerMonitorRun(c *gin.Context) {
	if len(appConfig.Monitor.SearchURLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No search URLs configured"})
		return
	}
	if appConfig.Slack.WebhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No Slack webhook configured"})
		return
	}

	go func() {
		if appScheduler != nil {
			if err := appScheduler.RunNow(); err != nil {
				log.Printf("Monitor run failed: %v", err)
			}
			return
		}
		if _, err := runner.Run(context.Background()); err != nil {
			log.Printf("Monitor run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Monitoring pass started in background",
		"targets": len(appConfig.Monitor.SearchURLs),
	})
}

func searchListings(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 20
	}

	// No query: serve straight from the database
	if query == "" {
		var listings []models.Listing
		var err error

		if gormDB != nil {
			listings, err = gormDB.GetAllListings()
		} else {
			listings, err = db.GetAllListings()
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, listings)
		return
	}

	listings, err := searchClient.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, listings)
}

func filterListings(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 20
	}

	params := search.FilterParams{
		Query: query,
		Limit: limit,
	}

	if minStr := c.Query("min_total"); minStr != "" {
		if min, err := strconv.Atoi(minStr); err == nil {
			params.MinTotal = &min
		}
	}
	if maxStr := c.Query("max_total"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil {
			params.MaxTotal = &max
		}
	}
	if layouts := c.QueryArray("layout"); len(layouts) > 0 {
		params.Layouts = layouts
	}
	if maxWalkStr := c.Query("max_walk"); maxWalkStr != "" {
		if maxWalk, err := strconv.Atoi(maxWalkStr); err == nil {
			params.MaxWalkMin = &maxWalk
		}
	}
	if maxAgeStr := c.Query("max_age"); maxAgeStr != "" {
		if maxAge, err := strconv.ParseFloat(maxAgeStr, 64); err == nil {
			params.MaxAgeYears = &maxAge
		}
	}
	if site := c.Query("site"); site != "" {
		params.SourceSite = site
	}
	if sortBy := c.Query("sort_by"); sortBy != "" {
		params.SortBy = sortBy
	}

	// Nothing to filter on: serve straight from the database
	if query == "" && params.MinTotal == nil && params.MaxTotal == nil &&
		len(params.Layouts) == 0 && params.MaxWalkMin == nil &&
		params.MaxAgeYears == nil && params.SourceSite == "" {
		var listings []models.Listing
		var err error

		if gormDB != nil {
			listings, err = gormDB.GetAllListings()
		} else {
			listings, err = db.GetAllListings()
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, listings)
		return
	}

	listings, err := searchClient.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// advancedSearchListings performs search with filters, sorting and facets
func advancedSearchListings(c *gin.Context) {
	var reqBody struct {
		Query      string   `json:"query"`
		Limit      int64    `json:"limit"`
		Offset     int64    `json:"offset"`
		MinTotal   *int     `json:"min_total"`
		MaxTotal   *int     `json:"max_total"`
		Layouts    []string `json:"layouts"`
		MinArea    *float64 `json:"min_area"`
		MaxArea    *float64 `json:"max_area"`
		MaxWalkMin *int     `json:"max_walk"`
		Sort       string   `json:"sort"`
		Facets     []string `json:"facets"`
	}

	if err := c.ShouldBindJSON(&reqBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filters := []string{}
	if reqBody.MinTotal != nil {
		filters = append(filters, fmt.Sprintf("total_yen >= %d", *reqBody.MinTotal))
	}
	if reqBody.MaxTotal != nil {
		filters = append(filters, fmt.Sprintf("total_yen <= %d", *reqBody.MaxTotal))
	}
	if reqBody.MinArea != nil {
		filters = append(filters, fmt.Sprintf("area_m2 >= %f", *reqBody.MinArea))
	}
	if reqBody.MaxArea != nil {
		filters = append(filters, fmt.Sprintf("area_m2 <= %f", *reqBody.MaxArea))
	}
	if reqBody.MaxWalkMin != nil {
		filters = append(filters, fmt.Sprintf("station_walk_min <= %d", *reqBody.MaxWalkMin))
	}
	if len(reqBody.Layouts) > 0 {
		layoutFilters := make([]string, len(reqBody.Layouts))
		for i, layout := range reqBody.Layouts {
			layoutFilters[i] = fmt.Sprintf("layout = '%s'", layout)
		}
		filters = append(filters, "("+strings.Join(layoutFilters, " OR ")+")")
	}

	sortConditions := []string{}
	switch reqBody.Sort {
	case "total_asc":
		sortConditions = append(sortConditions, "total_yen:asc")
	case "total_desc":
		sortConditions = append(sortConditions, "total_yen:desc")
	case "area_desc":
		sortConditions = append(sortConditions, "area_m2:desc")
	case "walk_asc":
		sortConditions = append(sortConditions, "station_walk_min:asc")
	case "age_asc":
		sortConditions = append(sortConditions, "age_years:asc")
	case "newest":
		sortConditions = append(sortConditions, "created_at:desc")
	}

	facets := reqBody.Facets
	if len(facets) == 0 {
		facets = []string{"layout", "nearest_station", "source_site"}
	}

	searchReq := search.SearchRequest{
		Query:  reqBody.Query,
		Limit:  reqBody.Limit,
		Offset: reqBody.Offset,
		Filter: filters,
		Sort:   sortConditions,
		Facets: facets,
	}
	if searchReq.Limit == 0 {
		searchReq.Limit = 20
	}

	result, err := searchClient.AdvancedSearch(searchReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":            result.Hits,
		"total_hits":      result.TotalHits,
		"facets":          result.Facets,
		"processing_time": result.ProcessingTime,
		"query":           reqBody.Query,
		"filters":         filters,
	})
}

// reindexAllListings re-indexes every archived listing into Meilisearch
func reindexAllListings(c *gin.Context) {
	log.Println("[Reindex] Starting full reindex of all listings")

	var listings []models.Listing
	var err error

	if gormDB != nil {
		listings, err = gormDB.GetAllListings()
	} else {
		listings, err = db.GetAllListings()
	}

	if err != nil {
		log.Printf("[Reindex] Error fetching listings from database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch listings from database",
		})
		return
	}

	log.Printf("[Reindex] Found %d listings in database", len(listings))

	if err := searchClient.IndexListings(listings); err != nil {
		log.Printf("[Reindex] Error indexing listings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[Reindex] Reindex complete: %d listings", len(listings))

	c.JSON(http.StatusOK, gin.H{
		"message": "Reindex complete",
		"total":   len(listings),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

// portOrDefault resolves the port from config, then env, then default
func portOrDefault(configPort int, envKey string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if v := os.Getenv(envKey); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			return p
		}
	}
	return defaultPort
}

// rateLimitMiddleware returns a Gin middleware that enforces rate limiting
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.Allow() {
			stats := rateLimiter.GetStats()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   stats,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// getRateLimitStats returns current rate limiter statistics
func getRateLimitStats(c *gin.Context) {
	stats := rateLimiter.GetStats()
	c.JSON(http.StatusOK, stats)
}
