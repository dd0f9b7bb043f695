package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

const (
	appTitle     = "NUESTRA AGENDA"
	pageMargin   = 15.0
	footerHeight = 20.0
	rowHeight    = 8.0
	displayDate  = "Jan 2, 2006"
)

var (
	textDark  = activity.RGB{R: 0x1f, G: 0x29, B: 0x37}
	textMuted = activity.RGB{R: 0x6b, G: 0x72, B: 0x80}
	rowShade  = activity.RGB{R: 0xf3, G: 0xf4, B: 0xf6}
	brand     = activity.RGB{R: 0x1e, G: 0x40, B: 0xaf}
)

type column struct {
	title string
	width float64
	align string
}

// page wraps an fpdf document with the shared report layout.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPage(title string, generatedAt time.Time) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerHeight)
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Nuestra Agenda", true)
	pdf.SetCreationDate(generatedAt)
	pdf.AliasNbPages("")

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, textMuted)
		pdf.CellFormat(0, 5, "Generated by Nuestra Agenda", "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	return p
}

func (p *page) header(subtitle string, color activity.RGB, generatedAt time.Time) {
	pdf := p.pdf

	pdf.SetFont("Helvetica", "B", 22)
	setText(pdf, textDark)
	pdf.CellFormat(0, 12, appTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 15)
	setText(pdf, color)
	pdf.CellFormat(0, 9, p.tr(subtitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, textMuted)
	pdf.CellFormat(0, 6, "Generated on "+generatedAt.Format(displayDate), "", 1, "C", false, 0, "")

	pdf.SetDrawColor(color.R, color.G, color.B)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 2
	pdf.Line(pageMargin, y, 210-pageMargin, y)
	pdf.SetLineWidth(0.2)
	pdf.Ln(7)
}

func (p *page) sectionTitle(title string) {
	p.ensureSpace(rowHeight * 3)
	p.pdf.SetFont("Helvetica", "B", 12)
	setText(p.pdf, textDark)
	p.pdf.CellFormat(0, 8, p.tr(title), "", 1, "L", false, 0, "")
}

func (p *page) summary(s Summary, color activity.RGB) {
	p.sectionTitle("Summary")
	rows := [][]string{
		{"Total activities", fmt.Sprintf("%d", s.Count)},
		{"Paid", fmt.Sprintf("%d", s.PaidCount)},
		{"Pending", fmt.Sprintf("%d", s.PendingCount)},
		{"Total amount", FormatCurrency(s.Total)},
		{"Paid amount", FormatCurrency(s.PaidAmount)},
		{"Pending amount", FormatCurrency(s.PendingAmount)},
	}
	p.table([]column{
		{title: "Metric", width: 90, align: "L"},
		{title: "Value", width: 90, align: "R"},
	}, rows, color)
	p.pdf.Ln(6)
}

// table draws a header row and the body, repeating the header after each
// page break.
func (p *page) table(cols []column, rows [][]string, color activity.RGB) {
	pdf := p.pdf

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(color.R, color.G, color.B)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(color.R, color.G, color.B)
		for _, c := range cols {
			pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
	}

	p.ensureSpace(rowHeight * 2)
	drawHeader()

	pdf.SetDrawColor(0xd1, 0xd5, 0xdb)
	for i, row := range rows {
		if p.ensureSpace(rowHeight) {
			drawHeader()
			pdf.SetDrawColor(0xd1, 0xd5, 0xdb)
		}
		pdf.SetFont("Helvetica", "", 9)
		setText(pdf, textDark)
		pdf.SetFillColor(rowShade.R, rowShade.G, rowShade.B)
		for j, c := range cols {
			cell := ""
			if j < len(row) {
				cell = p.fit(row[j], c.width-2)
			}
			pdf.CellFormat(c.width, rowHeight, cell, "1", 0, c.align, i%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}
}

// ensureSpace starts a new page when h does not fit above the footer and
// reports whether it did.
func (p *page) ensureSpace(h float64) bool {
	_, pageHeight := p.pdf.GetPageSize()
	if p.pdf.GetY()+h <= pageHeight-footerHeight {
		return false
	}
	p.pdf.AddPage()
	return true
}

// fit translates s and truncates it with an ellipsis to width. The
// translated text is cp1252, one byte per character, so it is cut on bytes.
func (p *page) fit(s string, width float64) string {
	s = p.tr(s)
	if p.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && p.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (p *page) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCategory(category activity.Category, list []activity.Activity, generatedAt time.Time) ([]byte, error) {
	color := category.Color()
	p := newPage(category.Name()+" Report", generatedAt)
	p.header(category.Name()+" Report", color, generatedAt)
	p.summary(Summarize(list), color)

	p.sectionTitle("Activities")
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.Date.Format(displayDate),
			a.Name,
			a.DescriptionOr("-"),
			FormatCurrency(a.Amount),
			paidLabel(a.IsPaid),
		})
	}
	p.table([]column{
		{title: "Date", width: 28, align: "L"},
		{title: "Name", width: 45, align: "L"},
		{title: "Description", width: 62, align: "L"},
		{title: "Amount", width: 25, align: "R"},
		{title: "Paid", width: 20, align: "C"},
	}, rows, color)

	return p.bytes()
}

func renderComplete(list []activity.Activity, generatedAt time.Time) ([]byte, error) {
	p := newPage("Complete Report", generatedAt)
	p.header("Complete Report", brand, generatedAt)
	p.summary(Summarize(list), brand)

	p.sectionTitle("By category")
	breakdown := Breakdown(list)
	rows := make([][]string, 0, len(breakdown))
	for _, row := range breakdown {
		rows = append(rows, []string{
			row.Name,
			fmt.Sprintf("%d", row.Count),
			FormatCurrency(row.Total),
			FormatCurrency(row.Paid),
		})
	}
	p.table([]column{
		{title: "Category", width: 60, align: "L"},
		{title: "Activities", width: 30, align: "C"},
		{title: "Total", width: 45, align: "R"},
		{title: "Paid", width: 45, align: "R"},
	}, rows, brand)

	p.pdf.AddPage()
	p.sectionTitle("All activities")
	rows = rows[:0]
	for _, a := range list {
		rows = append(rows, []string{
			a.Date.Format(displayDate),
			a.Name,
			a.Category.Name(),
			FormatCurrency(a.Amount),
			paidLabel(a.IsPaid),
		})
	}
	p.table([]column{
		{title: "Date", width: 28, align: "L"},
		{title: "Name", width: 65, align: "L"},
		{title: "Category", width: 37, align: "L"},
		{title: "Amount", width: 30, align: "R"},
		{title: "Paid", width: 20, align: "C"},
	}, rows, brand)

	return p.bytes()
}

func paidLabel(paid bool) string {
	if paid {
		return "Yes"
	}
	return "No"
}

func setText(pdf *fpdf.Fpdf, c activity.RGB) {
	pdf.SetTextColor(c.R, c.G, c.B)
}
