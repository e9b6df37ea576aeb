package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/jmorenas/stageinv/internal/domain"
)

const (
	marginMM     = 20.0
	lineStepMM   = 6.0
	rowFontPt    = 10.0
	headerFontPt = 14.0
	maxLineChars = 120
	maxNoteChars = 90
)

// Items renders the full inventory listing: a bold header, then one line per
// item, breaking to a fresh page (without repeating the heavy header) when
// the cursor reaches the bottom margin.
func Items(items []*domain.Item) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	_, pageH := pdf.GetPageSize()

	y := marginMM
	pdf.SetFont("Helvetica", "B", headerFontPt)
	pdf.Text(marginMM, y, "Item Inventory Report")
	y += 10

	pdf.SetFont("Helvetica", "", rowFontPt)
	writeRows(pdf, items, y, pageH)

	return output(pdf)
}

// ProductionBOM renders the bill of materials for one production: a header
// block with the production's name, date, and notes, then the assigned items
// in the same row format as the inventory listing.
func ProductionBOM(prod *domain.Production, items []*domain.Item) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	_, pageH := pdf.GetPageSize()

	y := marginMM
	pdf.SetFont("Helvetica", "B", headerFontPt)
	pdf.Text(marginMM, y, "BOM - "+prod.Name)
	y += 8

	pdf.SetFont("Helvetica", "", rowFontPt)
	date := ""
	if prod.Date != nil {
		date = prod.Date.Format("2006-01-02")
	}
	pdf.Text(marginMM, y, "Date: "+date)
	y += lineStepMM
	if prod.Notes != nil && *prod.Notes != "" {
		pdf.Text(marginMM, y, "Notes: "+truncate(*prod.Notes, maxNoteChars))
		y += 8
	}

	writeRows(pdf, items, y, pageH)

	return output(pdf)
}

func writeRows(pdf *gofpdf.Fpdf, items []*domain.Item, y, pageH float64) {
	for _, item := range items {
		if y > pageH-marginMM {
			pdf.AddPage()
			y = marginMM
			pdf.SetFont("Helvetica", "", rowFontPt)
		}
		pdf.Text(15, y, truncate(itemLine(item), maxLineChars))
		y += lineStepMM
	}
}

func itemLine(item *domain.Item) string {
	return fmt.Sprintf("%s | %s | %s | SN:%s | %s",
		item.InventoryID,
		item.Name,
		deref(item.Category),
		deref(item.SerialNumber),
		joinSpace(deref(item.Manufacturer), deref(item.Model)),
	)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func joinSpace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
