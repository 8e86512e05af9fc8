package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/pkg/models"
)

const (
	msgNotFound    = "Movie not found!"
	msgMovieAdded  = "Movie added successfully!"
	msgReviewAdded = "Review added!"
)

// Handler serves the HTML pages.
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
	rg.GET("/", h.index)
	rg.GET("/movie/:id", h.detail)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/add", h.addForm)
	rg.POST("/add", h.addMovie)
	rg.POST("/movie/:id/review", h.addReview)
}

func (h *Handler) index(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	genre := strings.TrimSpace(c.Query("genre"))

	c.HTML(http.StatusOK, "index", gin.H{
		"Flash":         popFlash(c),
		"Movies":        models.NewMovieViews(h.Store.Query(q, genre)),
		"Genres":        h.Store.ListGenres(),
		"Query":         q,
		"SelectedGenre": genre,
	})
}

func (h *Handler) detail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.notFound(c)
		return
	}
	m, err := h.Store.Get(id)
	if err != nil {
		h.notFound(c)
		return
	}

	c.HTML(http.StatusOK, "movie", gin.H{
		"Flash": popFlash(c),
		"Movie": models.NewMovieView(m),
	})
}

func (h *Handler) addForm(c *gin.Context) {
	c.HTML(http.StatusOK, "add_movie", gin.H{
		"Form": catalog.MovieInput{},
	})
}

func (h *Handler) addMovie(c *gin.Context) {
	var in catalog.MovieInput
	if err := c.ShouldBind(&in); err != nil {
		c.HTML(http.StatusBadRequest, "add_movie", gin.H{"Form": in, "Error": "invalid form submission"})
		return
	}

	m, err := h.Store.AddMovie(in)
	if err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			c.HTML(http.StatusBadRequest, "add_movie", gin.H{"Form": in, "Error": ve.Reason})
			return
		}
		log.Error().Err(err).Msg("web: add movie")
		c.HTML(http.StatusInternalServerError, "add_movie", gin.H{"Form": in, "Error": "could not add movie"})
		return
	}

	log.Info().Int("movie_id", m.ID).Str("title", m.Title).Msg("movie added")
	h.Feed.Publish(feed.MovieAdded(m))
	setFlash(c, msgMovieAdded)
	c.Redirect(http.StatusFound, "/movie/"+strconv.Itoa(m.ID))
}

func (h *Handler) addReview(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.notFound(c)
		return
	}

	var in catalog.ReviewInput
	if err := c.ShouldBind(&in); err != nil {
		setFlash(c, "invalid form submission")
		c.Redirect(http.StatusFound, "/movie/"+strconv.Itoa(id))
		return
	}

	review, err := h.Store.AddReview(id, in)
	if err != nil {
		var ve *catalog.ValidationError
		switch {
		case catalog.IsNotFound(err):
			h.notFound(c)
		case errors.As(err, &ve):
			setFlash(c, ve.Reason)
			c.Redirect(http.StatusFound, "/movie/"+strconv.Itoa(id))
		default:
			log.Error().Err(err).Msg("web: add review")
			setFlash(c, "could not add review")
			c.Redirect(http.StatusFound, "/movie/"+strconv.Itoa(id))
		}
		return
	}

	if m, err := h.Store.Get(id); err == nil {
		h.Feed.Publish(feed.ReviewAdded(m, review))
	}
	setFlash(c, msgReviewAdded)
	c.Redirect(http.StatusFound, "/movie/"+strconv.Itoa(id))
}

func (h *Handler) notFound(c *gin.Context) {
	setFlash(c, msgNotFound)
	c.Redirect(http.StatusFound, "/")
}
