package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/gofiber/fiber/v2/log"
)

// Meta is the structured header data printed above the quote body.
type Meta struct {
	OfferRef string
	Date     string
	Company  string
	Contact  string
	Customer string
	Location string
	JobType  string
	Size     string
	Material string

	PriceWork     int64
	PriceMaterial int64
	PriceOther    int64
	Total         int64
}

const pageMargin = 18.0

// Render produces the quote document as PDF bytes. The markdown body keeps
// its heading and bullet structure; long content flows onto additional pages
// via auto page breaks, it is never truncated. logo may be nil.
func Render(markdown string, meta Meta, logo []byte) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageW, _ := doc.GetPageSize()
	contentW := pageW - 2*pageMargin

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(contentW/2, 8, "QUOTE", "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(contentW/2, 8, "Offertly", "", 1, "R", false, 0, "")
	doc.Ln(2)

	placeLogo(doc, logo, pageW)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(contentW/2, 5.5, tr("Quote ID: "+meta.OfferRef), "", 0, "L", false, 0, "")
	doc.CellFormat(contentW/2, 5.5, tr("Date: "+meta.Date), "", 1, "R", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(contentW, 5.5, tr(meta.Company), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(contentW, 5.2, tr("Contact: "+meta.Contact), "", "L", false)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(contentW, 5.5, tr("Customer: "+meta.Customer), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(contentW, 5.5, tr("Location: "+meta.Location), "", 1, "L", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(contentW, 5.5, tr("Service: "+meta.JobType), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(contentW, 5.5, tr("Scope: "+meta.Size), "", 1, "L", false, 0, "")
	doc.CellFormat(contentW, 5.5, tr("Material: "+meta.Material), "", 1, "L", false, 0, "")
	doc.Ln(3)

	priceBox(doc, tr, meta, contentW)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(contentW, 7, "Quote text", "", 1, "L", false, 0, "")
	doc.Ln(1)

	writeBody(doc, tr, markdown, contentW)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// placeLogo draws the customer logo in the top right corner. Logos are
// optional decoration: anything that fails to decode is skipped.
func placeLogo(doc *fpdf.Fpdf, logo []byte, pageW float64) {
	if len(logo) == 0 {
		return
	}
	img, err := imaging.Decode(bytes.NewReader(logo))
	if err != nil {
		log.Warnf("[PDF] skipping logo, decode failed: %v", err)
		return
	}
	img = imaging.Fit(img, 600, 360, imaging.Lanczos)

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		log.Warnf("[PDF] skipping logo, encode failed: %v", err)
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("customer-logo", opts, &encoded)
	doc.ImageOptions("customer-logo", pageW-pageMargin-38, pageMargin+8, 38, 0, false, opts, 0, "")
}

func priceBox(doc *fpdf.Fpdf, tr func(string) string, meta Meta, contentW float64) {
	x, y := doc.GetXY()
	doc.RoundedRect(x, y, contentW, 24, 3, "1234", "D")

	doc.SetXY(x+6, y+3)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(contentW/2-6, 5.5, "Price overview", "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(contentW/2-6, 5.5, "SEK (incl. VAT)", "", 1, "R", false, 0, "")

	doc.SetX(x + 6)
	doc.CellFormat(contentW/2-6, 5.5, tr(fmt.Sprintf("Work: %d", meta.PriceWork)), "", 0, "L", false, 0, "")
	doc.CellFormat(contentW/2-6, 5.5, tr(fmt.Sprintf("Material: %d", meta.PriceMaterial)), "", 1, "R", false, 0, "")
	doc.SetX(x + 6)
	doc.CellFormat(contentW/2-6, 5.5, tr(fmt.Sprintf("Other: %d", meta.PriceOther)), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(contentW/2-6, 5.5, tr(fmt.Sprintf("Total: %d", meta.Total)), "", 1, "R", false, 0, "")

	doc.SetXY(x, y+28)
	doc.SetFont("Helvetica", "", 10)
}

// writeBody renders the markdown quote text line by line: # headings become
// bold lines, - and * items become bullets, everything else wraps inside a
// MultiCell so the auto page break handles overflow.
func writeBody(doc *fpdf.Fpdf, tr func(string) string, markdown string, contentW float64) {
	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, "\t", "    "))
		line = strings.ReplaceAll(line, "**", "")

		if line == "" {
			doc.Ln(3)
			continue
		}

		if strings.HasPrefix(line, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(line, "#"))
			doc.Ln(1)
			doc.SetFont("Helvetica", "B", 11)
			doc.MultiCell(contentW, 6, tr(heading), "", "L", false)
			doc.SetFont("Helvetica", "", 10)
			continue
		}

		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
			item := strings.TrimSpace(strings.TrimLeft(line, "-*• "))
			doc.MultiCell(contentW, 5.2, tr("- "+item), "", "L", false)
			continue
		}

		doc.MultiCell(contentW, 5.2, tr(line), "", "L", false)
	}
}
