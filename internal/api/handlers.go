package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal"
	"github.com/valpere/bookflow/internal/library"
	"github.com/valpere/bookflow/internal/pipeline"
	"github.com/valpere/bookflow/internal/store"
)

type fetchRequest struct {
	URL string `json:"url" binding:"required"`
}

type fetchResponse struct {
	Text string `json:"text"`
}

// rewriteRequest carries either the chapter text or a URL to fetch it from.
// Text may be an empty string.
type rewriteRequest struct {
	Text *string `json:"text"`
	URL  string  `json:"url"`
}

type rewriteResponse struct {
	pipeline.Result
	Source string `json:"source,omitempty"`
}

type saveRequest struct {
	Content *string `json:"content" binding:"required"`
}

type chapterResponse struct {
	internal.Version
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

type versionsResponse struct {
	Versions []internal.Version `json:"versions"`
}

type rateRequest struct {
	Score *int `json:"score" binding:"required"`
}

type rateResponse struct {
	Book          string  `json:"book"`
	Ratings       []int   `json:"ratings"`
	AverageRating float64 `json:"average_rating"`
}

type bookSummary struct {
	Title         string   `json:"title"`
	Chapters      []string `json:"chapters"`
	Ratings       []int    `json:"ratings"`
	AverageRating float64  `json:"average_rating"`
}

type libraryResponse struct {
	Books []bookSummary `json:"books"`
}

func (h *handler) fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "url is required")
		return
	}

	text, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, fetchResponse{Text: text})
}

// rewrite runs the pipeline detached from the request: a client that goes
// away does not cancel completion calls already in flight.
func (h *handler) rewrite(c *gin.Context) {
	var req rewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if req.Text == nil && req.URL == "" {
		badRequest(c, "text or url is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.rewriteTimeout)
	defer cancel()

	var resp rewriteResponse
	text := ""
	if req.Text != nil {
		text = *req.Text
	} else {
		fetched, err := h.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			abort(c, err)
			return
		}
		text = fetched
		resp.Source = fetched
	}

	res, err := h.rewriter.Rewrite(ctx, text)
	if err != nil {
		abort(c, err)
		return
	}
	if c.Request.Context().Err() != nil {
		h.logger.Info("client left before rewrite finished; result discarded",
			zap.String("request_id", c.GetString(requestIDKey)))
		return
	}

	resp.Result = *res
	c.JSON(http.StatusOK, resp)
}

func (h *handler) listVersions(c *gin.Context) {
	versions, err := h.store.List(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, versionsResponse{Versions: versions})
}

func (h *handler) saveChapter(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	owner, book, chapter := c.Param("owner"), c.Param("book"), c.Param("chapter")
	if err := h.store.Save(c.Request.Context(), owner, book, chapter, *req.Content); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) getChapter(c *gin.Context) {
	ctx := c.Request.Context()
	owner, book, chapter := c.Param("owner"), c.Param("book"), c.Param("chapter")

	v, err := h.store.Get(ctx, owner, book, chapter)
	if err != nil {
		abort(c, err)
		return
	}

	resp := chapterResponse{Version: v}
	versions, err := h.store.List(ctx, owner)
	if err != nil {
		abort(c, err)
		return
	}
	if b, ok := library.Find(library.Group(versions, nil), v.Book); ok {
		resp.Previous, resp.Next = b.Neighbours(v.Chapter)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) deleteChapter(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("owner"), c.Param("book"), c.Param("chapter"))
	if err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("score between %d and %d is required", store.MinRating, store.MaxRating))
		return
	}

	ctx := c.Request.Context()
	owner, book := c.Param("owner"), c.Param("book")
	if err := h.store.Rate(ctx, owner, book, *req.Score); err != nil {
		abort(c, err)
		return
	}

	ratings, err := h.store.Ratings(ctx, owner)
	if err != nil {
		abort(c, err)
		return
	}
	book = store.Normalize(book)
	b := library.Book{Title: book, Ratings: ratings[book]}
	c.JSON(http.StatusOK, rateResponse{Book: book, Ratings: b.Ratings, AverageRating: b.AverageRating()})
}

func (h *handler) library(c *gin.Context) {
	books, err := h.books(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abort(c, err)
		return
	}

	resp := libraryResponse{Books: []bookSummary{}}
	for _, b := range library.Filter(books, c.Query("search")) {
		s := bookSummary{Title: b.Title, Ratings: b.Ratings, AverageRating: b.AverageRating()}
		for _, ch := range b.Chapters {
			s.Chapters = append(s.Chapters, ch.Title)
		}
		resp.Books = append(resp.Books, s)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) export(c *gin.Context) {
	format, err := library.ParseFormat(c.DefaultQuery("format", "txt"))
	if err != nil {
		abort(c, err)
		return
	}

	books, err := h.books(c.Request.Context(), c.Param("owner"))
	if err != nil {
		abort(c, err)
		return
	}
	b, ok := library.Find(books, store.Normalize(c.Param("book")))
	if !ok {
		abort(c, store.ErrNotFound)
		return
	}

	data, err := library.Export(b, format)
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", library.ExportFileName(b, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

func (h *handler) books(ctx context.Context, owner string) ([]library.Book, error) {
	versions, err := h.store.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	ratings, err := h.store.Ratings(ctx, owner)
	if err != nil {
		return nil, err
	}
	return library.Group(versions, ratings), nil
}
