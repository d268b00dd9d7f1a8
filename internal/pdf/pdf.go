// Package pdf renders quotes and invoices as A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"

	"invoicer/internal/models"
	"invoicer/internal/money"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
	qrSize     = 32.0
)

type rgb struct{ r, g, b int }

var (
	defaultBrand = rgb{37, 99, 235}
	textGray     = rgb{75, 85, 99}
	rowFill      = rgb{243, 244, 246}
)

// Data is everything printed on a document.
type Data struct {
	Document  models.Document
	Profile   models.Profile
	Client    models.Client
	PublicURL string
}

// Render writes the PDF for data to w.
func Render(w io.Writer, data Data) error {
	doc := data.Document
	brand := parseHexColor(data.Profile.BrandColor)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	// Header
	pdf.SetTextColor(brand.r, brand.g, brand.b)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth/2, 10, tr(data.Profile.DisplayName()), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(contentWidth/2, 10, strings.ToUpper(string(doc.Type)), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(textGray.r, textGray.g, textGray.b)
	pdf.CellFormat(contentWidth, lineHeight, tr(doc.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Issued: "+doc.IssueDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	if doc.DueDate != nil {
		label := "Due: "
		if doc.Type == models.TypeQuote {
			label = "Valid until: "
		}
		pdf.CellFormat(contentWidth, lineHeight, label+doc.DueDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Bill to
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentWidth, lineHeight, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{data.Client.Name, data.Client.Email, data.Client.Address, data.Client.Phone} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.MultiCell(contentWidth, lineHeight-1, tr(line), "", "L", false)
	}
	pdf.Ln(6)

	// Line items
	cols := []float64{contentWidth * 0.5, contentWidth * 0.15, contentWidth * 0.17, contentWidth * 0.18}
	pdf.SetFillColor(brand.r, brand.g, brand.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range []string{"Description", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(cols[i], 8, header, "", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(rowFill.r, rowFill.g, rowFill.b)
	for i, item := range doc.LineItems {
		fill := i%2 == 1
		pdf.CellFormat(cols[0], 7, tr(item.Description), "", 0, "L", fill, 0, "")
		pdf.CellFormat(cols[1], 7, item.Quantity.String(), "", 0, "R", fill, 0, "")
		pdf.CellFormat(cols[2], 7, money.Format(item.UnitPrice), "", 0, "R", fill, 0, "")
		pdf.CellFormat(cols[3], 7, money.Format(money.LineTotal(item)), "", 1, "R", fill, 0, "")
	}
	pdf.Ln(3)

	// Totals
	labelWidth := cols[0] + cols[1] + cols[2]
	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], lineHeight, value, "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", money.Format(doc.Subtotal), false)
	totalRow(fmt.Sprintf("VAT (%s%%)", doc.VATRate.String()), money.Format(doc.VATAmount), false)
	totalRow("Total", money.FormatWithCurrency(doc.Total, doc.Currency), true)
	pdf.Ln(6)

	if doc.Notes != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth, lineHeight, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentWidth, lineHeight-1, tr(doc.Notes), "", "L", false)
		pdf.Ln(4)
	}

	if bank := bankLines(data.Profile); len(bank) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth, lineHeight, "Bank details", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range bank {
			pdf.CellFormat(contentWidth, lineHeight-1, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if doc.PaymentLink != nil && *doc.PaymentLink != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(brand.r, brand.g, brand.b)
		pdf.CellFormat(contentWidth, lineHeight, "Pay online: "+*doc.PaymentLink, "", 1, "L", false, 0, *doc.PaymentLink)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	if data.PublicURL != "" {
		_, pageHeight := pdf.GetPageSize()
		if pdf.GetY()+qrSize > pageHeight-pageMargin {
			pdf.AddPage()
		}
		top := pdf.GetY()
		if err := drawQR(pdf, data.PublicURL, pageMargin, top); err != nil {
			return err
		}
		pdf.SetXY(pageMargin+qrSize+4, top+qrSize/2-lineHeight)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(textGray.r, textGray.g, textGray.b)
		pdf.CellFormat(contentWidth-qrSize-4, lineHeight, "Scan to view this "+string(doc.Type)+" online", "", 2, "L", false, 0, "")
		pdf.CellFormat(contentWidth-qrSize-4, lineHeight, data.PublicURL, "", 1, "L", false, 0, data.PublicURL)
		pdf.SetY(top + qrSize)
	}

	if doc.HasHash() {
		pdf.SetAutoPageBreak(false, 0)
		pdf.SetY(-pageMargin - lineHeight)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(textGray.r, textGray.g, textGray.b)
		pdf.CellFormat(contentWidth, lineHeight, "Verified document - "+hashPrefix(*doc.VerificationHash), "", 0, "C", false, 0, "")
	}

	return pdf.Output(w)
}

// Bytes renders data into memory.
func Bytes(data Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// qrPNG encodes content as an 8-bit grayscale PNG; gofpdf rejects 16-bit depth.
func qrPNG(content string) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return nil, fmt.Errorf("qr scale: %w", err)
	}
	gray := image.NewGray(code.Bounds())
	draw.Draw(gray, gray.Bounds(), code, code.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("qr png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawQR(pdf *gofpdf.Fpdf, content string, x, y float64) error {
	img, err := qrPNG(content)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(img))
	pdf.ImageOptions("qr", x, y, qrSize, qrSize, false, opts, 0, "")
	return pdf.Error()
}

func bankLines(p models.Profile) []string {
	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Bank", p.BankName)
	add("Account holder", p.AccountHolder)
	add("IBAN", p.IBAN)
	add("BIC", p.BIC)
	return lines
}

func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

func parseHexColor(value string) rgb {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) != 6 {
		return defaultBrand
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return defaultBrand
	}
	return rgb{int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff)}
}
