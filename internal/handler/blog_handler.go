package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
)

const msgArticlesFailed = "Fehler beim Laden der Artikel"

// BlogService lists blog posts.
type BlogService interface {
	ListArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error)
}

type BlogHandler struct {
	service  BlogService
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBlogHandler(service BlogService, log *logger.Logger) *BlogHandler {
	return &BlogHandler{service: service, validate: newValidator(), logger: log}
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type articlesResponse struct {
	Articles   []json.RawMessage  `json:"articles"`
	Pagination paginationResponse `json:"pagination"`
}

// ListArticles handles GET /api/blog/articles?status=&page=&limit=&search=
func (h *BlogHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := models.ArticleQuery{
		Status: params.Get("status"),
		Search: params.Get("search"),
	}
	// Unparsable numbers fall back to the defaults.
	q.Page, _ = strconv.Atoi(params.Get("page"))
	q.Limit, _ = strconv.Atoi(params.Get("limit"))

	if err := h.validate.Struct(q); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, validationMessage(err))
		return
	}

	page, err := h.service.ListArticles(r.Context(), q)
	if err != nil {
		writeDomainError(w, h.logger, err, msgArticlesFailed)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, articlesResponse{
		Articles: page.Articles,
		Pagination: paginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}
