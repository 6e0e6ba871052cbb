package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Receipt describes a single payment confirmation for PDF rendering.
type Receipt struct {
	SchoolName    string
	ReceiptID     string
	Email         string
	ClassName     string
	AmountDisplay string
	TransactionID string
	PaidAt        string
}

// ReceiptExporter renders payment receipts as PDF documents.
type ReceiptExporter struct{}

// NewReceiptExporter constructs a receipt exporter.
func NewReceiptExporter() *ReceiptExporter {
	return &ReceiptExporter{}
}

// Render creates a single-page PDF receipt.
func (e *ReceiptExporter) Render(r Receipt) ([]byte, error) {
	if r.ReceiptID == "" {
		return nil, fmt.Errorf("receipt requires an id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.SchoolName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt", r.ReceiptID},
		{"Billed to", r.Email},
		{"Class", r.ClassName},
		{"Amount", r.AmountDisplay},
		{"Transaction", r.TransactionID},
		{"Paid at", r.PaidAt},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(135, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for enrolling with us.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
