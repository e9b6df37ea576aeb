package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmorenas/stageinv/internal/domain"
)

type ProductionStore struct {
	db *sql.DB
}

func NewProductionStore(db *sql.DB) *ProductionStore {
	return &ProductionStore{db: db}
}

func (s *ProductionStore) Create(ctx context.Context, name string, date *time.Time, notes *string) (*domain.Production, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO productions (name, date, notes) VALUES (?, ?, ?)
	`, name, dateToSQL(date), notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create production: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ProductionStore) GetByID(ctx context.Context, id int64) (*domain.Production, error) {
	prod := &domain.Production{}
	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, date, notes FROM productions WHERE id = ?
	`, id).Scan(&prod.ID, &prod.Name, &date, &prod.Notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get production: %w", err)
	}

	if prod.Date, err = dateFromSQL(date); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *ProductionStore) List(ctx context.Context) ([]*domain.Production, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, notes FROM productions ORDER BY date DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list productions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var prods []*domain.Production
	for rows.Next() {
		prod := &domain.Production{}
		var date sql.NullString
		if err := rows.Scan(&prod.ID, &prod.Name, &date, &prod.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan production: %w", err)
		}
		if prod.Date, err = dateFromSQL(date); err != nil {
			return nil, err
		}
		prods = append(prods, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating productions: %w", err)
	}
	return prods, nil
}

func (s *ProductionStore) Update(ctx context.Context, id int64, name string, date *time.Time, notes *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE productions SET name = ?, date = ?, notes = ? WHERE id = ?
	`, name, dateToSQL(date), notes, id)
	if err != nil {
		return fmt.Errorf("failed to update production: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("production not found")
	}

	return nil
}

func (s *ProductionStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM productions WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete production: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("production not found")
	}

	return nil
}

// AssignItem records that an item is used by a production. Assigning the same
// pair twice is a no-op; the check-then-insert is acceptable at this system's
// concurrency level and keeps the statement portable across drivers.
func (s *ProductionStore) AssignItem(ctx context.Context, id int64, inventoryID string) error {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM production_items WHERE production_id = ? AND inventory_id = ?
	`, id, inventoryID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO production_items (production_id, inventory_id) VALUES (?, ?)
	`, id, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to assign item: %w", err)
	}
	return nil
}

func (s *ProductionStore) RemoveItem(ctx context.Context, id int64, inventoryID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM production_items WHERE production_id = ? AND inventory_id = ?
	`, id, inventoryID)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

// ListItems returns the items assigned to a production, ordered by item name.
func (s *ProductionStore) ListItems(ctx context.Context, id int64) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.inventory_id, i.name, i.category, i.description, i.serial_number, i.manufacturer, i.model
		FROM production_items pi
		JOIN items i ON i.inventory_id = pi.inventory_id
		WHERE pi.production_id = ?
		ORDER BY i.name ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	return scanItems(rows)
}

// Dates travel as YYYY-MM-DD strings so the same store code runs against the
// MySQL DATE column and the sqlite TEXT column used in tests.
func dateToSQL(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format("2006-01-02")
}

func dateFromSQL(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	// MySQL may return a full timestamp depending on column type; keep to the
	// date part.
	v := ns.String
	if len(v) > 10 {
		v = v[:10]
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", ns.String, err)
	}
	return &t, nil
}
