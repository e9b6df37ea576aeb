package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmorenas/stageinv/internal/auth"
	"github.com/jmorenas/stageinv/internal/domain"
)

// itemRepository is the subset of store.ItemStore that InventoryService requires.
type itemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, inventoryID string) (*domain.Item, error)
	List(ctx context.Context, filter string) ([]*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, inventoryID string) error
}

// productionRepository is the subset of store.ProductionStore that InventoryService requires.
type productionRepository interface {
	Create(ctx context.Context, name string, date *time.Time, notes *string) (*domain.Production, error)
	GetByID(ctx context.Context, id int64) (*domain.Production, error)
	List(ctx context.Context) ([]*domain.Production, error)
	Update(ctx context.Context, id int64, name string, date *time.Time, notes *string) error
	Delete(ctx context.Context, id int64) error
	AssignItem(ctx context.Context, id int64, inventoryID string) error
	RemoveItem(ctx context.Context, id int64, inventoryID string) error
	ListItems(ctx context.Context, id int64) ([]*domain.Item, error)
}

// userRepository is the subset of store.UserStore that InventoryService requires.
type userRepository interface {
	Create(ctx context.Context, username, passwordHash string, isAdmin bool) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// LabelHook regenerates an item's stored label after a mutation. Keeping it
// behind a function value means the CRUD path and the label generator can be
// tested apart from each other.
type LabelHook func(item *domain.Item) error

type InventoryService struct {
	items       itemRepository
	productions productionRepository
	users       userRepository
	onItemSaved LabelHook
	logger      *slog.Logger
}

func NewInventoryService(
	items itemRepository,
	productions productionRepository,
	users userRepository,
	onItemSaved LabelHook,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		items:       items,
		productions: productions,
		users:       users,
		onItemSaved: onItemSaved,
		logger:      logger,
	}
}

func (s *InventoryService) ListItems(ctx context.Context, filter string) ([]*domain.Item, error) {
	return s.items.List(ctx, filter)
}

func (s *InventoryService) GetItem(ctx context.Context, inventoryID string) (*domain.Item, error) {
	return s.items.GetByID(ctx, inventoryID)
}

func (s *InventoryService) CreateItem(ctx context.Context, item *domain.Item) error {
	return s.items.Create(ctx, item)
}

// UpdateItem persists the item and then regenerates its label through the
// hook. The update and the regeneration are not tied together: a hook failure
// leaves the row updated and a stale (or missing) label on disk, which is
// logged and accepted.
func (s *InventoryService) UpdateItem(ctx context.Context, item *domain.Item) error {
	if err := s.items.Update(ctx, item); err != nil {
		return err
	}

	if s.onItemSaved != nil {
		if err := s.onItemSaved(item); err != nil {
			s.logger.Error("label regeneration failed", "inventory_id", item.InventoryID, "error", err)
		} else {
			s.logger.Info("label regenerated", "inventory_id", item.InventoryID)
		}
	}
	return nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, inventoryID string) error {
	return s.items.Delete(ctx, inventoryID)
}

func (s *InventoryService) ListProductions(ctx context.Context) ([]*domain.Production, error) {
	return s.productions.List(ctx)
}

func (s *InventoryService) GetProduction(ctx context.Context, id int64) (*domain.Production, error) {
	return s.productions.GetByID(ctx, id)
}

func (s *InventoryService) CreateProduction(ctx context.Context, name string, date *time.Time, notes *string) (*domain.Production, error) {
	return s.productions.Create(ctx, name, date, notes)
}

func (s *InventoryService) UpdateProduction(ctx context.Context, id int64, name string, date *time.Time, notes *string) error {
	return s.productions.Update(ctx, id, name, date, notes)
}

func (s *InventoryService) DeleteProduction(ctx context.Context, id int64) error {
	return s.productions.Delete(ctx, id)
}

// ProductionDetail returns the production, its assigned items ordered by
// name, and the full catalog for the assignment picker.
func (s *InventoryService) ProductionDetail(ctx context.Context, id int64) (*domain.Production, []*domain.Item, []*domain.Item, error) {
	prod, err := s.productions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if prod == nil {
		return nil, nil, nil, nil
	}

	assigned, err := s.productions.ListItems(ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list assigned items: %w", err)
	}
	all, err := s.items.List(ctx, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return prod, assigned, all, nil
}

func (s *InventoryService) AssignItem(ctx context.Context, id int64, inventoryID string) error {
	return s.productions.AssignItem(ctx, id, inventoryID)
}

func (s *InventoryService) RemoveItem(ctx context.Context, id int64, inventoryID string) error {
	return s.productions.RemoveItem(ctx, id, inventoryID)
}

// AssignedItems returns the items attached to a production for report
// generation.
func (s *InventoryService) AssignedItems(ctx context.Context, id int64) ([]*domain.Item, error) {
	return s.productions.ListItems(ctx, id)
}

// Authenticate verifies the credentials and returns the user, or nil when
// the username is unknown or the password does not match.
func (s *InventoryService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

func (s *InventoryService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ProvisionUser creates an account unless the username is already taken, in
// which case the existing account is left untouched. Setup relies on this to
// stay idempotent across resubmissions.
func (s *InventoryService) ProvisionUser(ctx context.Context, username, password string, isAdmin bool) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Info("user already provisioned", "username", username)
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.users.Create(ctx, username, hash, isAdmin); err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}
	s.logger.Info("user provisioned", "username", username, "is_admin", isAdmin)
	return nil
}
