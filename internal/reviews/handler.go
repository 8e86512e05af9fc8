package reviews

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
)

type Handler struct {
	Store *catalog.Store
	Feed  feed.Publisher
}

func NewHandler(store *catalog.Store, pub feed.Publisher) *Handler {
	if pub == nil {
		pub = feed.NopPublisher{}
	}
	return &Handler{Store: store, Feed: pub}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies/:id/reviews", h.listByMovie)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/movies/:id/reviews", h.create)
}

func (h *Handler) listByMovie(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	m, err := h.Store.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movie_id":       m.ID,
		"average_rating": m.AverageRating(),
		"items":          m.Reviews,
	})
}

func (h *Handler) create(c *gin.Context) {
	id, ok := movieID(c)
	if !ok {
		return
	}

	var req catalog.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	review, err := h.Store.AddReview(id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	if m, err := h.Store.Get(id); err == nil {
		h.Feed.Publish(feed.ReviewAdded(m, review))
	}
	log.Info().Int("movie_id", id).Str("review_id", review.ID).Int("rating", review.Rating).Msg("review added")
	c.JSON(http.StatusCreated, review)
}

func movieID(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movie id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	var ve *catalog.ValidationError
	var nf *catalog.NotFoundError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Reason, "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		log.Error().Err(err).Msg("reviews: unexpected store error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
