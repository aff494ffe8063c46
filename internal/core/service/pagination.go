package service

import "github.com/DanielPopoola/ficmart-billing/internal/core/domain"

// resolvePage applies the listing defaults and bounds. Failures are built
// with invalid so each lifecycle reports them under its own error code.
func resolvePage(page, size *int, invalid func(string) *domain.DomainError) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: 0, Size: domain.DefaultPageSize}
	if page != nil {
		req.Page = *page
	}
	if size != nil {
		req.Size = *size
	}

	if req.Page < 0 {
		return domain.PageRequest{}, invalid("Page number must be >= 0")
	}
	if req.Size < 1 || req.Size > domain.MaxPageSize {
		return domain.PageRequest{}, invalid("Page size must be between 1 and 100")
	}
	return req, nil
}
