package services

import (
	"context"

	"github.com/BradenHooton/formgate/internal/models"
)

// MockMenuRepository implements MenuRepository for testing
type MockMenuRepository struct {
	ListOrderedFunc func(ctx context.Context) ([]models.Menu, error)
}

func (m *MockMenuRepository) ListOrdered(ctx context.Context) ([]models.Menu, error) {
	if m.ListOrderedFunc != nil {
		return m.ListOrderedFunc(ctx)
	}
	return []models.Menu{}, nil
}

// NewTestMenu creates a menu entry for testing
func NewTestMenu(screenID, path string, order int) models.Menu {
	return models.Menu{
		ID:           int64(order),
		ScreenID:     screenID,
		ScreenName:   screenID + " screen",
		ButtonName:   screenID,
		Path:         path,
		DisplayOrder: order,
	}
}
