package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

type SearchService struct {
	Repo  *repo.GormRepo
	Index ProductSearcher
}

type SearchResult struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"items"`
}

// Search prefers the search index and falls back to the database when it is
// absent or failing.
func (s *SearchService) Search(ctx context.Context, keyword string, offset, limit int) (*SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, newErr(ErrValidation, "Keyword is required and must be in string format")
	}

	if s.Index != nil {
		total, items, err := s.Index.SearchProducts(ctx, keyword, offset, limit)
		if err == nil {
			return &SearchResult{Total: total, Items: items}, nil
		}
		logging.FromContext(ctx).Warn("search_index_unavailable", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, keyword, offset, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Total: total, Items: items}, nil
}
