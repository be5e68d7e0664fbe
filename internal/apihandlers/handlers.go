package apihandlers

import (
	"fmt"
	"net/http"
	"strconv"

	"linkhive/internal/app"
	"linkhive/internal/models"
	"linkhive/internal/services"
	"linkhive/pkg/categorizer"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(app *app.App) *APIHandler {
	return &APIHandler{App: app}
}

// RegisterRoutes mounts every API route on the router. Kept separate
// from the serve command so tests can exercise the real routing table.
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthHandler)

	v1 := router.Group("/api/v1")

	links := v1.Group("/links")
	links.POST("", h.SaveLinkHandler)
	links.GET("", h.ListLinksHandler)
	links.GET("/:id", h.GetLinkHandler)
	links.DELETE("/:id", h.DeleteLinkHandler)
	links.GET("/:id/related", h.RelatedLinksHandler)
	links.POST("/:id/autocollect", h.AutoCollectLinkHandler)

	collections := v1.Group("/collections")
	collections.GET("", h.ListCollectionsHandler)
	collections.POST("", h.CreateCollectionHandler)
	collections.DELETE("/:id", h.DeleteCollectionHandler)
	collections.GET("/:id/links", h.ListCollectionLinksHandler)
	collections.POST("/:id/links", h.AddLinkToCollectionHandler)
	collections.DELETE("/:id/links/:linkId", h.RemoveLinkFromCollectionHandler)

	suggestions := v1.Group("/suggestions")
	suggestions.GET("/smart", h.SmartSuggestionsHandler)
	suggestions.GET("/backlog", h.BacklogSuggestionsHandler)
	suggestions.POST("/backlog/apply", h.ApplyBacklogHandler)

	v1.POST("/categorize", h.CategorizeHandler)
	v1.GET("/search", h.SearchHandler)
}

// userID resolves the acting user. Single-user deployments never send
// the header and fall back to the configured default.
func (h *APIHandler) userID(c *gin.Context) string {
	if uid := c.GetHeader("X-User-ID"); uid != "" {
		return uid
	}
	return h.App.Config.API.DefaultUser
}

func (h *APIHandler) SaveLinkHandler(c *gin.Context) {
	var req SaveLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		BadRequest(c, "Missing required field: url")
		return
	}

	link, created, err := h.App.LinkService.SaveLink(c.Request.Context(), services.SaveLinkParams{
		UserID:      h.userID(c),
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Via:         "api",
		Collect:     req.Collect,
	})
	if err != nil {
		FromError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": SaveLinkResponse{Link: *link, Created: created}})
}

func (h *APIHandler) ListLinksHandler(c *gin.Context) {
	limit, offset, err := parseListParams(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	links, err := h.App.LinkService.ListLinks(c.Request.Context(), h.userID(c), limit, offset)
	if err != nil {
		Internal(c, fmt.Sprintf("ListLinksHandler: failed to list links: %v", err))
		return
	}
	if links == nil {
		links = []*models.Link{}
	}
	c.JSON(http.StatusOK, gin.H{"items": links})
}

// GetLinkHandler handles GET requests for a single link by ID.
func (h *APIHandler) GetLinkHandler(c *gin.Context) {
	link, err := h.App.LinkService.GetLink(c.Request.Context(), h.userID(c), c.Param("id"))
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": link})
}

func (h *APIHandler) DeleteLinkHandler(c *gin.Context) {
	if err := h.App.LinkService.DeleteLink(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RelatedLinksHandler returns links whose embeddings sit closest to the
// given link's. Requires the link to be embedded already.
func (h *APIHandler) RelatedLinksHandler(c *gin.Context) {
	limit := 10
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		} else {
			BadRequest(c, "Invalid query parameters: invalid limit: "+l)
			return
		}
	}

	results, err := h.App.SearchService.RelatedLinks(c.Request.Context(), h.userID(c), c.Param("id"), limit)
	if err != nil {
		FromError(c, err)
		return
	}
	if results == nil {
		results = []services.SemanticResultItem{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// AutoCollectLinkHandler runs categorization for one link on demand and
// reports the outcome, whether or not it was filed.
func (h *APIHandler) AutoCollectLinkHandler(c *gin.Context) {
	userID := h.userID(c)
	link, err := h.App.LinkService.GetLink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		FromError(c, err)
		return
	}

	existing, err := h.App.CollectionService.ListCollections(c.Request.Context(), userID, nil)
	if err != nil {
		Internal(c, fmt.Sprintf("AutoCollectLinkHandler: failed to list collections: %v", err))
		return
	}

	result, err := h.App.AutoCollectService.ProcessLink(c.Request.Context(), link, existing)
	if err != nil {
		Internal(c, "Auto-collection failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *APIHandler) ListCollectionsHandler(c *gin.Context) {
	var pinned *bool
	if p := c.Query("pinned"); p != "" {
		parsed, err := strconv.ParseBool(p)
		if err != nil {
			BadRequest(c, "Invalid query parameters: invalid pinned: "+p)
			return
		}
		pinned = &parsed
	}

	collections, err := h.App.CollectionService.ListCollections(c.Request.Context(), h.userID(c), pinned)
	if err != nil {
		Internal(c, fmt.Sprintf("ListCollectionsHandler: failed to list collections: %v", err))
		return
	}
	if collections == nil {
		collections = []*models.Collection{}
	}
	c.JSON(http.StatusOK, gin.H{"items": collections})
}

func (h *APIHandler) CreateCollectionHandler(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	coll, err := h.App.CollectionService.CreateCollection(c.Request.Context(), h.userID(c), req.Name, req.Description, req.Pinned)
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": coll})
}

func (h *APIHandler) DeleteCollectionHandler(c *gin.Context) {
	if err := h.App.CollectionService.DeleteCollection(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) ListCollectionLinksHandler(c *gin.Context) {
	limit, offset, err := parseListParams(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	links, err := h.App.CollectionService.ListLinks(c.Request.Context(), h.userID(c), c.Param("id"), limit, offset)
	if err != nil {
		FromError(c, err)
		return
	}
	if links == nil {
		links = []*models.Link{}
	}
	c.JSON(http.StatusOK, gin.H{"items": links})
}

func (h *APIHandler) AddLinkToCollectionHandler(c *gin.Context) {
	var req AddCollectionLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.LinkID == "" {
		BadRequest(c, "Missing required field: linkId")
		return
	}

	if err := h.App.CollectionService.AddLink(c.Request.Context(), h.userID(c), req.LinkID, c.Param("id")); err != nil {
		FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveLinkFromCollectionHandler unfiles a link. The collection in the
// path must actually hold the link, otherwise 404.
func (h *APIHandler) RemoveLinkFromCollectionHandler(c *gin.Context) {
	userID := h.userID(c)
	collectionID := c.Param("id")
	linkID := c.Param("linkId")

	link, err := h.App.LinkService.GetLink(c.Request.Context(), userID, linkID)
	if err != nil {
		FromError(c, err)
		return
	}
	if link.CollectionID == nil || *link.CollectionID != collectionID {
		NotFound(c, fmt.Sprintf("Link %s is not in collection %s", linkID, collectionID))
		return
	}

	if err := h.App.CollectionService.RemoveLink(c.Request.Context(), userID, linkID); err != nil {
		FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) SmartSuggestionsHandler(c *gin.Context) {
	suggestions, err := h.App.AutoCollectService.SmartSuggestions(c.Request.Context(), h.userID(c))
	if err != nil {
		Internal(c, fmt.Sprintf("SmartSuggestionsHandler: %v", err))
		return
	}
	if suggestions == nil {
		suggestions = []*services.SmartSuggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"items": suggestions})
}

func (h *APIHandler) BacklogSuggestionsHandler(c *gin.Context) {
	batch, err := parseBatchSize(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	out, err := h.App.AutoCollectService.SuggestForBacklog(c.Request.Context(), h.userID(c), batch)
	if err != nil {
		Internal(c, fmt.Sprintf("BacklogSuggestionsHandler: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// ApplyBacklogHandler files unfiled links in bulk, up to ?batch of
// them, and reports the per-link outcomes.
func (h *APIHandler) ApplyBacklogHandler(c *gin.Context) {
	batch, err := parseBatchSize(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	results, err := h.App.AutoCollectService.ApplyBacklog(c.Request.Context(), h.userID(c), batch)
	if err != nil {
		Internal(c, fmt.Sprintf("ApplyBacklogHandler: %v", err))
		return
	}
	if results == nil {
		results = []*services.AutoCollectResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// CategorizeHandler is a dry run: it classifies the given link fields
// without saving or filing anything. A null match means no category
// fit.
func (h *APIHandler) CategorizeHandler(c *gin.Context) {
	var req CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		BadRequest(c, "Missing required field: url")
		return
	}
	if h.App.Categorizer == nil {
		Internal(c, "Categorizer is not configured")
		return
	}

	match, err := h.App.Categorizer.Categorize(c.Request.Context(), categorizer.Input{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		Internal(c, "Categorization failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"match": match}})
}

func (h *APIHandler) SearchHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		BadRequest(c, "Missing required 'q' parameter")
		return
	}

	limit := h.App.Config.Search.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		} else {
			BadRequest(c, "Invalid query parameters: invalid limit: "+l)
			return
		}
	}

	semantic := false
	if s := c.Query("semantic"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			BadRequest(c, "Invalid query parameters: invalid semantic: "+s)
			return
		}
		semantic = parsed
	}

	userID := h.userID(c)
	if semantic {
		results, err := h.App.SearchService.SemanticSearch(c.Request.Context(), userID, query, limit)
		if err != nil {
			Internal(c, fmt.Sprintf("SearchHandler: semantic search failed: %v", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	links, err := h.App.SearchService.KeywordSearch(c.Request.Context(), userID, query, limit)
	if err != nil {
		Internal(c, fmt.Sprintf("SearchHandler: keyword search failed: %v", err))
		return
	}
	if links == nil {
		links = []*models.Link{}
	}
	c.JSON(http.StatusOK, gin.H{"results": links})
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	if err := h.App.LinkStore.Ping(c.Request.Context()); err != nil {
		JSONError(c, http.StatusServiceUnavailable, "unavailable", "store unreachable: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseListParams reads the shared limit/offset pagination parameters.
func parseListParams(c *gin.Context) (int, int, error) {
	limit := 20
	offset := 0

	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		} else {
			return 0, 0, fmt.Errorf("invalid limit: %s", l)
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		} else {
			return 0, 0, fmt.Errorf("invalid offset: %s", o)
		}
	}
	return limit, offset, nil
}

func parseBatchSize(c *gin.Context) (int, error) {
	batch := 20
	if b := c.Query("batch"); b != "" {
		parsed, err := strconv.Atoi(b)
		if err != nil || parsed <= 0 {
			return 0, fmt.Errorf("invalid batch: %s", b)
		}
		batch = parsed
	}
	return batch, nil
}

// SaveLinkRequest is the JSON body for saving a link. Collect forces
// inline preview and auto-collection even when a job queue is wired.
type SaveLinkRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Collect     bool   `json:"collect"`
}

// SaveLinkResponse reports the saved link. Created is false when the
// URL was already saved and the existing link is returned instead.
type SaveLinkResponse struct {
	Link    models.Link `json:"link"`
	Created bool        `json:"created"`
}

type CreateCollectionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Pinned      bool    `json:"pinned"`
}

type AddCollectionLinkRequest struct {
	LinkID string `json:"linkId"`
}

type CategorizeRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
