package domain

import "time"

// Item is a physical asset in the catalog. InventoryID is user-assigned and
// immutable once created.
type Item struct {
	InventoryID  string
	Name         string
	Category     *string
	Description  *string
	SerialNumber *string
	Manufacturer *string
	Model        *string
}

// Production is an event or project that consumes inventory items.
type Production struct {
	ID    int64
	Name  string
	Date  *time.Time
	Notes *string
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
}
