package movies

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/archive"
	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/pkg/models"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies", h.list)        // GET /api/movies?q=&genre=
	rg.GET("/movies/:id", h.getByID) // GET /api/movies/:id
	rg.GET("/genres", h.genres)      // GET /api/genres
	rg.GET("/export.csv", h.exportCSV)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/movies", h.create)
}

func (h *Handler) list(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	genre := strings.TrimSpace(c.Query("genre"))

	items := h.Store.Query(q, genre)
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": models.NewMovieViews(items),
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	m, err := h.Store.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewMovieView(m))
}

func (h *Handler) genres(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Store.ListGenres()})
}

func (h *Handler) exportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="movies.csv"`)
	c.Status(http.StatusOK)
	if err := archive.WriteCSV(c.Writer, h.Store.ListAll()); err != nil {
		log.Error().Err(err).Msg("movies: export csv")
	}
}

func (h *Handler) create(c *gin.Context) {
	var req catalog.MovieInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	m, err := h.Store.AddMovie(req)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Info().Int("movie_id", m.ID).Str("title", m.Title).Str("admin", auth.AdminName(c)).Msg("movie added")
	h.Feed.Publish(feed.MovieAdded(m))
	c.JSON(http.StatusCreated, models.NewMovieView(m))
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
		log.Error().Err(err).Msg("movies: unexpected store error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
