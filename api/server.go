package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"douban-pulse/storage"
)

const dateLayout = "2006-01-02"

// Store is the read side of storage the API serves from.
type Store interface {
	GetStats(ctx context.Context) (map[string]int, error)
	GetMoviesByDay(ctx context.Context, day time.Time) ([]storage.MovieRecord, error)
	GetHotSearchByDay(ctx context.Context, day time.Time) ([]storage.HotSearchItem, error)
	RatingDistribution(ctx context.Context) ([]map[string]any, error)
	YearDistribution(ctx context.Context) ([]map[string]any, error)
	CountryDistribution(ctx context.Context) ([]map[string]any, error)
}

type Server struct {
	store  Store
	router *gin.Engine
}

func NewServer(store Store) *Server {
	s := &Server{store: store}
	s.router = s.setupRouter()
	return s
}

// Handler returns the router for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/get-param", getParam)
	api.POST("/post-data", postData)

	movies := api.Group("/movies")
	movies.GET("", s.moviesByDay)
	movies.GET("/rating-distribution", s.distribution(s.store.RatingDistribution))
	movies.GET("/year-distribution", s.distribution(s.store.YearDistribution))
	movies.GET("/country-distribution", s.distribution(s.store.CountryDistribution))

	api.GET("/hot-search", s.hotSearchByDay)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func fail(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"status": "error", "message": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "counts": stats})
}

// getParam echoes the param query value.
func getParam(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "参数是" + c.Query("param"),
		"status":  "success",
	})
}

// postData echoes body_param from a JSON body together with the param query value.
// A missing body reads as an empty body_param; a malformed one is rejected.
func postData(c *gin.Context) {
	var body struct {
		BodyParam string `json:"body_param"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "body中的参数是" + body.BodyParam + "，param中的参数是" + c.Query("param"),
		"status":  "success",
	})
}

func (s *Server) distribution(query func(context.Context) ([]map[string]any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := query(c.Request.Context())
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		success(c, rows)
	}
}

// parseDay reads the date query value in local time, defaulting to today.
func parseDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), true
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) moviesByDay(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}
	movies, err := s.store.GetMoviesByDay(c.Request.Context(), day)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if movies == nil {
		movies = []storage.MovieRecord{}
	}
	success(c, movies)
}

func (s *Server) hotSearchByDay(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}
	items, err := s.store.GetHotSearchByDay(c.Request.Context(), day)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []storage.HotSearchItem{}
	}
	success(c, items)
}
