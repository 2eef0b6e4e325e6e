package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/formgate/internal/models"
)

// MenuRepository defines the interface for menu data access
type MenuRepository interface {
	ListOrdered(ctx context.Context) ([]models.Menu, error)
}

// MenuService lists the screens shown after login
type MenuService struct {
	repo   MenuRepository
	logger *slog.Logger
}

// NewMenuService creates a new MenuService
func NewMenuService(repo MenuRepository, logger *slog.Logger) *MenuService {
	return &MenuService{repo: repo, logger: logger}
}

// List returns menu entries in display order. Repository errors are passed
// through wrapped so the error boundary can classify them.
func (s *MenuService) List(ctx context.Context) ([]models.Menu, error) {
	menus, err := s.repo.ListOrdered(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list menus", slog.Any("error", err))
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return menus, nil
}
