package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
	"github.com/personaflow/personaflow/app/feedback"
	"github.com/personaflow/personaflow/app/llm"
	"github.com/personaflow/personaflow/app/metrics"
)

const defaultFeedLimit = 50

func NewHandler(sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	queueRepo database.QueueRepository, settingsRepo database.SettingsRepository,
	feedbackService *feedback.Service, controller PipelineController, trigger RunTrigger) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		articleRepo:  articleRepo,
		queueRepo:    queueRepo,
		settingsRepo: settingsRepo,
		feedback:     feedbackService,
		controller:   controller,
		trigger:      trigger,
	}
}

// GetFeed returns the unread queue ordered by final score.
func (h *Handler) GetFeed(c *gin.Context) {
	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	entries, err := h.queueRepo.GetUnreadFeed(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"article_id":        entry.ArticleID,
			"source":            entry.SourceName,
			"url":               entry.URL,
			"title":             entry.Title,
			"summary":           entry.AISummary,
			"quality_score":     entry.QualityScore,
			"quality_rationale": entry.QualityRationale,
			"final_score":       entry.FinalScore,
			"published_at":      entry.PublishedAt,
			"queued_at":         entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// PostFeedAction records a like or skip for a queued article.
func (h *Handler) PostFeedAction(c *gin.Context) {
	var req feedActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id and action are required"})
		return
	}

	if req.Action != "like" && req.Action != "skip" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be like or skip"})
		return
	}

	result, err := h.feedback.Apply(req.ArticleID, req.Action)
	if err != nil {
		if errors.Is(err, database.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No queue entry for article"})
			return
		}
		slog.Error("Failed to apply feedback", "article_id", req.ArticleID, "action", req.Action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply feedback"})
		return
	}

	metrics.FeedbackActions.WithLabelValues(req.Action).Inc()

	c.JSON(http.StatusOK, gin.H{
		"article_id":      req.ArticleID,
		"status":          result.NewStatus,
		"applied":         result.Applied,
		"profile_updated": result.ProfileUpdated,
	})
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.GetAllSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(sources))
	for _, source := range sources {
		items = append(items, sourceResponse(&source))
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": items,
		"total":   len(items),
	})
}

func (h *Handler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url, kind and name are required"})
		return
	}

	if !validSourceKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind must be RSS or WEB"})
		return
	}

	// The canonical form is the dedup key for sources, same as for
	// articles.
	canonicalURL, err := feed.CanonicalURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source URL"})
		return
	}

	existing, err := h.sourceRepo.GetSourceByURL(canonicalURL)
	if err != nil {
		slog.Error("Database error", "operation", "create_source", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Source URL already registered"})
		return
	}

	source, err := h.sourceRepo.CreateSource(canonicalURL, req.Kind, req.Name)
	if err != nil {
		slog.Error("Failed to create source", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		return
	}

	c.JSON(http.StatusCreated, sourceResponse(source))
}

func (h *Handler) UpdateSource(c *gin.Context) {
	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Kind != nil && !validSourceKind(*req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind must be RSS or WEB"})
		return
	}

	if req.URL != nil {
		canonicalURL, err := feed.CanonicalURL(*req.URL)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source URL"})
			return
		}
		req.URL = &canonicalURL
	}

	source, err := h.sourceRepo.UpdateSource(c.Param("id"), database.SourcePatch{
		URL:     req.URL,
		Kind:    req.Kind,
		Name:    req.Name,
		Enabled: req.Enabled,
	})
	if err != nil {
		slog.Error("Failed to update source", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update source"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, sourceResponse(source))
}

func (h *Handler) DeleteSource(c *gin.Context) {
	err := h.sourceRepo.DeleteSource(c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		slog.Error("Failed to delete source", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPrompt returns the active scoring persona prompt.
func (h *Handler) GetPrompt(c *gin.Context) {
	prompt, err := h.settingsRepo.Get(database.SettingScoringPrompt)
	if err != nil {
		slog.Error("Database error", "operation", "get_prompt", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	custom := prompt != ""
	if !custom {
		prompt = llm.DefaultPersonaPrompt
	}

	c.JSON(http.StatusOK, gin.H{
		"prompt": prompt,
		"custom": custom,
	})
}

// SetPrompt stores a custom scoring persona prompt. It applies to new
// scoring calls and to the cold start profile; already scored articles
// keep their scores.
func (h *Handler) SetPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	if err := h.settingsRepo.Set(database.SettingScoringPrompt, req.Prompt); err != nil {
		slog.Error("Failed to save prompt", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompt": req.Prompt, "custom": true})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"state":     string(h.controller.State()),
	}

	if count, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	articleStats, err := h.articleRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "article_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	queueStats, err := h.queueRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "queue_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"state": string(h.controller.State()),
		"articles": gin.H{
			"total":             articleStats.Total,
			"pending":           articleStats.Pending,
			"extracted":         articleStats.Extracted,
			"extraction_failed": articleStats.ExtractionFailed,
			"embedded":          articleStats.Embedded,
			"scored":            articleStats.Scored,
			"ranked":            articleStats.Ranked,
		},
		"queue": gin.H{
			"total":   queueStats.Total,
			"unread":  queueStats.Unread,
			"liked":   queueStats.Liked,
			"skipped": queueStats.Skipped,
		},
	}

	if last := h.controller.LastRun(); last != nil {
		response["last_run"] = last
	}

	c.JSON(http.StatusOK, response)
}

// PostRefresh requests a pipeline run outside the regular schedule.
func (h *Handler) PostRefresh(c *gin.Context) {
	h.trigger.Trigger()
	c.JSON(http.StatusAccepted, gin.H{"message": "Pipeline run requested"})
}

func sourceResponse(source *database.Source) gin.H {
	return gin.H{
		"id":              source.ID,
		"url":             source.URL,
		"kind":            source.Kind,
		"name":            source.Name,
		"enabled":         source.Enabled,
		"last_fetched_at": source.LastFetchedAt,
		"created_at":      source.CreatedAt,
		"updated_at":      source.UpdatedAt,
	}
}

func validSourceKind(kind string) bool {
	return kind == database.SourceKindRSS || kind == database.SourceKindWeb
}
