package models

import "encoding/json"

// ArticleQuery selects a page of blog posts. Zero values pick the defaults:
// published posts, first page, ten per page.
type ArticleQuery struct {
	Status string `json:"status" validate:"omitempty,alphanum,max=32"`
	Search string `json:"search" validate:"max=200"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

// ArticlePage is one page of blog posts. Rows are passed through unchanged.
type ArticlePage struct {
	Articles   []json.RawMessage
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
