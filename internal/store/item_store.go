package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmorenas/stageinv/internal/domain"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, item *domain.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (inventory_id, name, category, description, serial_number, manufacturer, model)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.InventoryID, item.Name, item.Category, item.Description, item.SerialNumber, item.Manufacturer, item.Model)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *ItemStore) GetByID(ctx context.Context, inventoryID string) (*domain.Item, error) {
	item := &domain.Item{}
	err := s.db.QueryRowContext(ctx, `
		SELECT inventory_id, name, category, description, serial_number, manufacturer, model
		FROM items WHERE inventory_id = ?
	`, inventoryID).Scan(&item.InventoryID, &item.Name, &item.Category, &item.Description,
		&item.SerialNumber, &item.Manufacturer, &item.Model)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// List returns all items ordered by name. A non-empty filter restricts the
// result to items whose name contains it, case-insensitively.
func (s *ItemStore) List(ctx context.Context, filter string) ([]*domain.Item, error) {
	query := `
		SELECT inventory_id, name, category, description, serial_number, manufacturer, model
		FROM items
	`
	var args []any
	if filter != "" {
		query += " WHERE LOWER(name) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter)+"%")
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return scanItems(rows)
}

func (s *ItemStore) Update(ctx context.Context, item *domain.Item) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, category = ?, description = ?, serial_number = ?, manufacturer = ?, model = ?
		WHERE inventory_id = ?
	`, item.Name, item.Category, item.Description, item.SerialNumber, item.Manufacturer, item.Model, item.InventoryID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

func (s *ItemStore) Delete(ctx context.Context, inventoryID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE inventory_id = ?
	`, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

func scanItems(rows *sql.Rows) ([]*domain.Item, error) {
	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.InventoryID, &item.Name, &item.Category, &item.Description,
			&item.SerialNumber, &item.Manufacturer, &item.Model); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
