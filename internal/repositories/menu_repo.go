package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/formgate/internal/database"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(db *database.DB) *MenuRepository {
	return &MenuRepository{pool: db.Pool}
}

// ListOrdered returns every menu entry by display order.
func (r *MenuRepository) ListOrdered(ctx context.Context) ([]models.Menu, error) {
	query := `
		SELECT id, screen_id, screen_name, button_name, path, display_order
		FROM menus
		ORDER BY display_order, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", database.MapPostgresError(err))
	}
	defer rows.Close()

	menus := make([]models.Menu, 0)
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.ScreenID, &m.ScreenName, &m.ButtonName, &m.Path, &m.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan menu: %w", database.MapPostgresError(err))
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menus: %w", database.MapPostgresError(err))
	}
	return menus, nil
}
