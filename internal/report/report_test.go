package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorenas/stageinv/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestItemsReport(t *testing.T) {
	items := []*domain.Item{
		{InventoryID: "INV-001", Name: "Tripod", Category: strPtr("Grip")},
		{InventoryID: "INV-002", Name: "Camera", SerialNumber: strPtr("SN123")},
	}

	data, err := Items(items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.NotEmpty(t, data)
}

func TestItemsReportEmpty(t *testing.T) {
	data, err := Items(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestItemsReportPaginates(t *testing.T) {
	var items []*domain.Item
	for i := 0; i < 200; i++ {
		items = append(items, &domain.Item{
			InventoryID: fmt.Sprintf("INV-%03d", i),
			Name:        "Cable",
		})
	}

	data, err := Items(items)
	require.NoError(t, err)

	// 200 rows at 6mm per line cannot fit one A4 page; the Pages tree must
	// reference more than one kid.
	assert.Greater(t, strings.Count(string(data), "/Page"), 2)
}

func TestProductionBOM(t *testing.T) {
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	prod := &domain.Production{
		ID:    7,
		Name:  "Autumn Gala",
		Date:  &date,
		Notes: strPtr("Main hall, load-in at 8am"),
	}
	items := []*domain.Item{
		{InventoryID: "INV-001", Name: "Tripod"},
	}

	data, err := ProductionBOM(prod, items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestProductionBOMNoDateNoNotes(t *testing.T) {
	prod := &domain.Production{ID: 3, Name: "Undated"}

	data, err := ProductionBOM(prod, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestItemLineFormat(t *testing.T) {
	line := itemLine(&domain.Item{
		InventoryID:  "INV-001",
		Name:         "Tripod",
		Category:     strPtr("Grip"),
		SerialNumber: strPtr("SN9"),
		Manufacturer: strPtr("Manfrotto"),
		Model:        strPtr("055"),
	})
	assert.Equal(t, "INV-001 | Tripod | Grip | SN:SN9 | Manfrotto 055", line)

	line = itemLine(&domain.Item{InventoryID: "INV-002", Name: "Bare"})
	assert.Equal(t, "INV-002 | Bare |  | SN: | ", line)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
}
