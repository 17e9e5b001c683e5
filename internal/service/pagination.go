package service

import (
	"math"

	"docvault/internal/model"
)

// PageRequest carries the caller's page and limit. Zero or negative values select defaults.
// Pages too large to address are clamped to the last addressable page.
type PageRequest struct {
	Page  int
	Limit int
}

func (pr PageRequest) normalize(defaultLimit, maxLimit int) (page, limit int) {
	page, limit = pr.Page, pr.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// Keeps (page-1)*limit from overflowing; such a page is simply past the end.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Pagination describes the returned page. Total and Pages are set only when they are known
// without an extra count on the hot path.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
	Total   *int `json:"total,omitempty"`
	Pages   *int `json:"pages,omitempty"`
}

func (p *Pagination) setTotal(total, limit int) {
	pages := (total + limit - 1) / limit
	p.Total = &total
	p.Pages = &pages
}

// ListResult is the listing response envelope.
type ListResult struct {
	Documents  []model.DocumentSummary `json:"documents"`
	Pagination Pagination              `json:"pagination"`
}

// SearchResult is the free-text search response envelope.
type SearchResult struct {
	Documents  []model.DocumentView `json:"documents"`
	Pagination Pagination           `json:"pagination"`
}
