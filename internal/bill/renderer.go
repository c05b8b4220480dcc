package bill

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Line is one sale row on the invoice.
type Line struct {
	ProductName string
	Price       float64
	Quantity    int
	Amount      float64
}

// Data holds everything the invoice needs. One invoice covers all lines of
// an order.
type Data struct {
	InvoiceNo          string
	CustomerName       string
	CustomerEmail      string
	Lines              []Line
	Subtotal           float64
	DiscountPercentage float64
	DiscountAmount     float64
}

// GrandTotal is the amount payable after discount.
func (d Data) GrandTotal() float64 {
	return d.Subtotal - d.DiscountAmount
}

// RenderFunc lets callers swap the renderer in tests.
type RenderFunc func(Data) ([]byte, error)

const (
	pageWidth  = 595.28 // A4 portrait, points
	marginX    = 30.0
	tableWidth = 535.0
)

// Render draws the invoice PDF and returns it as a byte buffer.
func Render(data Data) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(true, 40)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(29, 84, 109)
	pdf.Rect(0, 0, pageWidth, 80, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(marginX, 38, "INVOICE")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(350, 20)
	pdf.CellFormat(215, 12, "Invoice #: "+data.InvoiceNo, "", 1, "R", false, 0, "")
	pdf.SetX(350)
	pdf.CellFormat(215, 12, "Date: "+time.Now().Format("02/01/2006"), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.Text(marginX, 62, "BILL TO:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(75, 62, fmt.Sprintf("%s | %s", strings.ToUpper(data.CustomerName), data.CustomerEmail))

	// Table header
	y := 95.0
	pdf.SetFillColor(232, 232, 232)
	pdf.Rect(marginX, y, tableWidth, 18, "F")

	pdf.SetTextColor(51, 51, 51)
	pdf.SetFont("Helvetica", "B", 8)
	tableRow(pdf, y+4, "PRODUCT", "UNIT PRICE (INR)", "QTY", "AMOUNT (INR)", false)

	// Rows
	pdf.SetFont("Helvetica", "", 9)
	y += 22
	const rowHeight = 18.0
	for i, line := range data.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
			pdf.Rect(marginX, y-2, tableWidth, rowHeight, "F")
		}
		tableRow(pdf, y,
			line.ProductName,
			fmt.Sprintf("Rs. %.2f", line.Price),
			fmt.Sprintf("%d", line.Quantity),
			fmt.Sprintf("Rs. %.2f", line.Amount),
			true,
		)
		y += rowHeight
	}

	// Divider
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginX, y+3, marginX+tableWidth, y+3)

	// Totals
	y += 13
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(300, y)
	pdf.CellFormat(80, 12, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.SetX(390)
	pdf.CellFormat(165, 12, fmt.Sprintf("Rs. %.2f", data.Subtotal), "", 1, "R", false, 0, "")

	y += 15
	if data.DiscountAmount > 0 {
		pdf.SetTextColor(229, 62, 62)
		pdf.SetXY(300, y)
		pdf.CellFormat(80, 12, fmt.Sprintf("Discount (%g%%):", data.DiscountPercentage), "", 0, "R", false, 0, "")
		pdf.SetX(390)
		pdf.CellFormat(165, 12, fmt.Sprintf("- Rs. %.2f", data.DiscountAmount), "", 1, "R", false, 0, "")
		y += 15
	}

	// Grand total band
	pdf.SetFillColor(29, 84, 109)
	pdf.Rect(380, y-3, 185, 22, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(390, y+11, "GRAND TOTAL")
	pdf.SetXY(390, y)
	pdf.CellFormat(165, 16, fmt.Sprintf("Rs. %.2f", data.GrandTotal()), "", 1, "R", false, 0, "")

	// Footer
	y += 40
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(tableWidth, 12, "Thank you for your business!", "", 1, "C", false, 0, "")

	pdf.SetTextColor(153, 153, 153)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(marginX, y+12)
	pdf.CellFormat(tableWidth, 10, "For queries, please contact support.", "", 1, "C", false, 0, "")

	pdf.SetTextColor(29, 84, 109)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginX, y+28)
	pdf.CellFormat(tableWidth, 10, "Powered by StockFlow", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render bill pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tableRow(pdf *gofpdf.Fpdf, y float64, product, unitPrice, qty, amount string, boldAmount bool) {
	pdf.SetXY(35, y)
	pdf.CellFormat(180, 12, product, "", 0, "L", false, 0, "")
	pdf.SetX(220)
	pdf.CellFormat(90, 12, unitPrice, "", 0, "R", false, 0, "")
	pdf.SetX(320)
	pdf.CellFormat(60, 12, qty, "", 0, "C", false, 0, "")
	if boldAmount {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetX(390)
		pdf.CellFormat(170, 12, amount, "", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		return
	}
	pdf.SetX(390)
	pdf.CellFormat(170, 12, amount, "", 1, "R", false, 0, "")
}
