package report

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"rollcall/internal/attendance"
)

var pdfWidths = []float64{25, 50, 25, 30, 60}

// PDF lays the report out on A4: title, summary line, then the record table.
func PDF(r attendance.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, tr(SummaryLine(r)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range columns {
		pdf.CellFormat(pdfWidths[i], 7, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	entries := r.Entries()
	if len(entries) == 0 {
		pdf.CellFormat(sum(pdfWidths), 7, tr("No detailed student records yet"), "1", 1, "C", false, 0, "")
	}
	for _, e := range entries {
		for i, cell := range row(e) {
			pdf.CellFormat(pdfWidths[i], 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}
