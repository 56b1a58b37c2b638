package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	rowHeight   = 7.0
	headHeight  = 8.0
	bottomLimit = 190.0
)

// PDFExporter renders datasets into a landscape table, one section per GroupBy value.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of rendered output.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension is the file extension of rendered output.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates a PDF document with the dataset title, subtitle and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
	}
	if data.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, data.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	columns := visibleHeaders(data)
	widths := columnWidths(pdf, columns, data.Rows)
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range columns {
			pdf.CellFormat(widths[i], headHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	group := "\x00"
	needHeader := true
	for _, row := range data.Rows {
		if data.GroupBy != "" && row[data.GroupBy] != group {
			group = row[data.GroupBy]
			if pdf.GetY()+headHeight*2+rowHeight > bottomLimit {
				pdf.AddPage()
			}
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, headHeight, group, "", 1, "L", false, 0, "")
			needHeader = true
		}
		if pdf.GetY()+rowHeight > bottomLimit {
			pdf.AddPage()
			needHeader = true
		}
		if needHeader {
			header()
			needHeader = false
		}
		for i, h := range columns {
			pdf.CellFormat(widths[i], rowHeight, row[h], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		header()
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// visibleHeaders drops the grouping column, which is printed as a section heading instead.
func visibleHeaders(data Dataset) []string {
	if data.GroupBy == "" {
		return data.Headers
	}
	out := make([]string, 0, len(data.Headers))
	for _, h := range data.Headers {
		if h != data.GroupBy {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return data.Headers
	}
	return out
}

// columnWidths sizes columns in proportion to their widest cell.
func columnWidths(pdf *gofpdf.Fpdf, headers []string, rows []map[string]string) []float64 {
	pdf.SetFont("Arial", "", 9)
	natural := make([]float64, len(headers))
	var total float64
	for i, h := range headers {
		w := pdf.GetStringWidth(h) + 6
		for _, row := range rows {
			if cw := pdf.GetStringWidth(row[h]) + 4; cw > w {
				w = cw
			}
		}
		natural[i] = w
		total += w
	}
	widths := make([]float64, len(headers))
	for i := range natural {
		widths[i] = natural[i] / total * pageWidth
	}
	return widths
}
