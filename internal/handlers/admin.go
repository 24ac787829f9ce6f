package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"rent-monitor/internal/models"
	"rent-monitor/internal/scheduler"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler serves the archive statistics and monitoring control
// endpoints.
type AdminHandler struct {
	db        *gorm.DB
	scheduler *scheduler.Scheduler
}

func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{
		db:        db,
		scheduler: sched,
	}
}

// GetStats returns archive statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	var total int64
	h.db.Model(&models.Listing{}).Count(&total)

	// Counts per source site
	type siteCount struct {
		SourceSite string `json:"source_site"`
		Count      int64  `json:"count"`
	}
	var bySite []siteCount
	h.db.Model(&models.Listing{}).
		Select("source_site, COUNT(*) as count").
		Group("source_site").
		Scan(&bySite)

	stats["listings"] = map[string]interface{}{
		"total":   total,
		"by_site": bySite,
	}

	// Listings first seen in the last 24 hours
	last24h := time.Now().AddDate(0, 0, -1)
	var recentNew int64
	h.db.Model(&models.Listing{}).Where("created_at >= ?", last24h).Count(&recentNew)
	stats["recent_activity"] = map[string]interface{}{
		"new_last_24h": recentNew,
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns the most recently fetched listings
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	var listings []models.Listing
	err := h.db.Order("fetched_at DESC").Limit(limit).Find(&listings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetPriceDistribution returns total-rent histogram buckets
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type bucket struct {
		Label string `json:"label"`
		Min   int    `json:"min"`
		Max   int    `json:"max"`
		Count int64  `json:"count"`
	}

	buckets := []bucket{
		{Label: "~5万円", Min: 0, Max: 50000},
		{Label: "5~8万円", Min: 50000, Max: 80000},
		{Label: "8~12万円", Min: 80000, Max: 120000},
		{Label: "12~20万円", Min: 120000, Max: 200000},
		{Label: "20万円~", Min: 200000, Max: 0},
	}

	for i := range buckets {
		q := h.db.Model(&models.Listing{}).Where("total_yen >= ?", buckets[i].Min)
		if buckets[i].Max > 0 {
			q = q.Where("total_yen < ?", buckets[i].Max)
		}
		q.Count(&buckets[i].Count)
	}

	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}

// TriggerMonitor manually triggers a monitoring pass
func (h *AdminHandler) TriggerMonitor(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available",
		})
		return
	}

	log.Println("Admin: Manual monitoring trigger requested")

	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual monitoring pass failed: %v", err)
		} else {
			log.Println("Admin: Manual monitoring pass completed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Monitoring pass started in background",
		"status":  "running",
	})
}
