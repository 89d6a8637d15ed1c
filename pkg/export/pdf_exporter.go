package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct {
	// MaxColumns caps how many columns are printed per table. Wide
	// enrollment tables are cut to their leading columns.
	MaxColumns int
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{MaxColumns: 8}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if title != "" {
		data.Title = title
	}
	return e.RenderMany([]Dataset{data})
}

// RenderMany prints each dataset as its own titled section, starting a new
// page per section.
func (e *PDFExporter) RenderMany(sections []Dataset) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one dataset")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, data := range sections {
		if len(data.Headers) == 0 {
			return nil, fmt.Errorf("pdf requires at least one header")
		}
		pdf.AddPage()
		if data.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
			pdf.Ln(4)
		}

		headers := data.Headers
		if e.MaxColumns > 0 && len(headers) > e.MaxColumns {
			headers = headers[:e.MaxColumns]
		}
		colWidth := 277.0 / float64(len(headers))

		pdf.SetFont("Arial", "B", 9)
		for _, header := range headers {
			pdf.CellFormat(colWidth, 8, tr(clip(pdf, header, colWidth)), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range data.Rows {
			row = fit(row, len(data.Headers))
			for i := range headers {
				pdf.CellFormat(colWidth, 7, tr(clip(pdf, row[i], colWidth)), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		if len(data.Rows) == 0 {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 8, "No records", "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// clip shortens text so it fits inside a cell of the given width.
func clip(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
