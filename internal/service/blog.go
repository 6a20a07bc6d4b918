package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/store"
)

const (
	blogPostsTable = "blog_posts"

	defaultArticleStatus = "published"
	anyArticleStatus     = "all"
	defaultArticleLimit  = 10
	maxArticleLimit      = 50
)

// BlogService reads published articles from the marketing store.
type BlogService struct {
	logger *logger.Logger
	pages  store.Pager
}

func NewBlogService(log *logger.Logger, pages store.Pager) *BlogService {
	return &BlogService{logger: log, pages: pages}
}

// ListArticles returns one page of blog posts, newest first. Posts without a
// publication date sort after dated ones.
func (s *BlogService) ListArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultArticleLimit
	}
	limit = min(limit, maxArticleLimit)

	query := store.Query{
		Search:        q.Search,
		SearchColumns: []string{"title", "content"},
		Order: []store.Order{
			{Column: "published_at", Descending: true, NullsLast: true},
			{Column: "created_at", Descending: true},
		},
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	status := strings.TrimSpace(q.Status)
	if status == "" {
		status = defaultArticleStatus
	}
	if status != anyArticleStatus {
		query.Filter = store.Eq("status", status)
	}

	var articles []json.RawMessage
	total, err := s.pages.Page(ctx, blogPostsTable, query, &articles)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles: %w", err)
	}
	if articles == nil {
		articles = []json.RawMessage{}
	}

	s.logger.Debug("Articles listed", logger.Action("list_articles"), logger.Count(len(articles)), logger.F("TOTAL", total))
	return &models.ArticlePage{
		Articles:   articles,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}
