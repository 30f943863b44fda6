package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumnWidths = []float64{32, 88, 35, 35}

// WritePDF renders the rows as an A4 table followed by a total line.
func WritePDF(w io.Writer, rows []Row, opts Options) error {
	title := opts.Title
	if title == "" {
		title = SheetName
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	stripeColor := [3]int{240, 240, 240}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footer := "Generated by kitabu"
		if !opts.GeneratedAt.IsZero() {
			footer += " on " + opts.GeneratedAt.Format("2006-01-02 15:04")
		}
		pdf.CellFormat(0, 10, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		for i, h := range Headers {
			align := "L"
			if i == len(Headers)-1 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], 8, h, "", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	drawHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, r := range rows {
		if pdf.GetY()+7 > pageHeight-bottom-15 {
			pdf.AddPage()
			drawHeader()
		}
		fill := i%2 == 1
		pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
		pdf.CellFormat(pdfColumnWidths[0], 7, tr(r.Date), "", 0, "L", fill, 0, "")
		pdf.CellFormat(pdfColumnWidths[1], 7, tr(truncate(r.Description, 48)), "", 0, "L", fill, 0, "")
		pdf.CellFormat(pdfColumnWidths[2], 7, tr(r.Category), "", 0, "L", fill, 0, "")
		pdf.CellFormat(pdfColumnWidths[3], 7, tr(r.Amount.String()), "", 1, "R", fill, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	labelWidth := pdfColumnWidths[0] + pdfColumnWidths[1] + pdfColumnWidths[2]
	pdf.CellFormat(labelWidth, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(pdfColumnWidths[3], 8, tr(Total(rows).Format(opts.Currency)), "T", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
