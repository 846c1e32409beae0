// Package api exposes fetching, rewriting, saved versions and the library
// over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal/pipeline"
	"github.com/valpere/bookflow/internal/store"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Rewriter interface {
	Rewrite(ctx context.Context, sourceText string) (*pipeline.Result, error)
}

type Deps struct {
	Fetcher  Fetcher
	Rewriter Rewriter
	Store    store.Store
	Logger   *zap.Logger
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
	// RewriteTimeout bounds a pipeline run. Defaults to 10 minutes.
	RewriteTimeout time.Duration
}

type handler struct {
	fetcher        Fetcher
	rewriter       Rewriter
	store          store.Store
	logger         *zap.Logger
	rewriteTimeout time.Duration
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RewriteTimeout <= 0 {
		d.RewriteTimeout = 10 * time.Minute
	}
	h := &handler{
		fetcher:        d.Fetcher,
		rewriter:       d.Rewriter,
		store:          d.Store,
		logger:         d.Logger,
		rewriteTimeout: d.RewriteTimeout,
	}

	r := gin.New()
	// Book and chapter titles may contain an escaped '/'.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), requestID(), zapLogger(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/fetch", h.fetch)
	v1.POST("/rewrite", h.rewrite)

	owner := v1.Group("/owners/:owner")
	owner.GET("/versions", h.listVersions)
	owner.GET("/library", h.library)

	book := owner.Group("/books/:book")
	book.PUT("/chapters/:chapter", h.saveChapter)
	book.GET("/chapters/:chapter", h.getChapter)
	book.DELETE("/chapters/:chapter", h.deleteChapter)
	book.POST("/ratings", h.rate)
	book.GET("/export", h.export)

	return r
}
