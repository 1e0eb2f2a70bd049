package letter

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"watersafe/internal/model"
)

const (
	pageWidth  = 612.0
	pageHeight = 792.0
	leftMargin = 50.0
	textWidth  = pageWidth - 2*leftMargin
)

// Request is everything a letter needs. Violation and Task are optional
// context; manual letters carry neither.
type Request struct {
	Template       Template
	System         model.WaterSystem
	Violation      *model.ViolationRecord
	Task           *model.ComplianceTask
	RecipientCount int
	Date           time.Time
}

// PDFRenderer lays out single-page US Letter notices.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func FileName(pwsid, templateID string) string {
	return fmt.Sprintf("letter-%s-%s.pdf", pwsid, templateID)
}

func (r *PDFRenderer) Render(ctx context.Context, req Request) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(leftMargin, leftMargin, leftMargin)
	pdf.SetTitle(req.Template.Name, true)
	pdf.SetCreator("watersafe", true)
	if !req.Date.IsZero() {
		pdf.SetCreationDate(req.Date)
	}
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	sys := req.System
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	p.text(leftMargin, 50, 18, "B", gray, "WATER SYSTEM NOTIFICATION")
	p.text(leftMargin, 100, 12, "", black, "System: "+sys.Name)
	p.text(leftMargin, 120, 12, "", black, "PWS ID: "+sys.PWSID)
	p.text(leftMargin, 140, 12, "", black, "Date: "+date.Format("1/2/2006"))

	y := 200.0
	switch req.Template.Tier {
	case model.Tier1Urgent:
		p.urgent(y, req)
	case model.Tier2Standard:
		p.standard(y, req)
	case model.Tier3Annual:
		p.annual(y, req)
	default:
		return model.Document{}, fmt.Errorf("unsupported tier %d for template %s", req.Template.Tier, req.Template.ID)
	}

	admin := sys.Contact.AdminName
	if admin == "" {
		admin = "System Administrator"
	}
	phone := sys.Contact.Phone
	if phone == "" {
		phone = "Phone: Contact system"
	}
	p.text(leftMargin, pageHeight-100, 11, "", black, "For questions, contact:")
	p.text(leftMargin, pageHeight-85, 11, "", black, admin)
	p.text(leftMargin, pageHeight-70, 11, "", black, phone)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return model.Document{}, fmt.Errorf("render %s: %w", req.Template.ID, err)
	}
	return model.Document{
		Name:        FileName(sys.PWSID, req.Template.ID),
		ContentType: "application/pdf",
		Bytes:       buf.Bytes(),
	}, nil
}

type rgb struct{ r, g, b int }

var (
	black  = rgb{0, 0, 0}
	gray   = rgb{51, 51, 51}
	red    = rgb{204, 51, 51}
	orange = rgb{153, 102, 51}
	blue   = rgb{51, 102, 204}
)

type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// text draws one line with its baseline y points below the top edge.
func (p *page) text(x, y, size float64, style string, c rgb, s string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.SetTextColor(c.r, c.g, c.b)
	p.pdf.Text(x, y, p.tr(s))
}

// paragraph wraps s inside the text column starting at baseline y and
// returns the baseline after the last line.
func (p *page) paragraph(y, size float64, s string) float64 {
	p.pdf.SetFont("Helvetica", "", size)
	p.pdf.SetTextColor(black.r, black.g, black.b)
	lineHeight := size + 4
	lines := p.pdf.SplitLines([]byte(p.tr(s)), textWidth)
	for i, line := range lines {
		p.pdf.Text(leftMargin, y+float64(i)*lineHeight, string(line))
	}
	return y + float64(len(lines)-1)*lineHeight
}

func (p *page) urgent(y float64, req Request) float64 {
	p.text(leftMargin, y, 14, "B", red, "URGENT NOTICE - IMMEDIATE ACTION REQUIRED")
	y += 30
	y = p.paragraph(y, 12, "This notice is being sent to inform you of an immediate health risk in your drinking water.")
	y += 40
	if v := req.Violation; v != nil {
		p.text(leftMargin, y, 12, "", black, "Violation: "+v.ViolationType)
		y += 20
		p.text(leftMargin, y, 12, "", black, "Contaminant: "+v.ContaminantName)
		y += 40
	}
	p.text(leftMargin, y, 12, "B", black, "IMMEDIATE ACTIONS REQUIRED:")
	y += 25
	for _, action := range []string{
		"Do not drink the water without boiling it first",
		"Use bottled water for drinking and cooking",
		"Contact your water system for updates",
	} {
		p.text(70, y, 11, "", black, "• "+action)
		y += 20
	}
	return y
}

func (p *page) standard(y float64, req Request) float64 {
	p.text(leftMargin, y, 14, "B", orange, "VIOLATION NOTICE")
	y += 30
	y = p.paragraph(y, 12, "This notice is being sent to inform you of a drinking water violation that occurred in our system.")
	y += 40
	if v := req.Violation; v != nil {
		p.text(leftMargin, y, 12, "", black, "Violation Type: "+v.ViolationType)
		y += 20
		p.text(leftMargin, y, 12, "", black, "Contaminant: "+v.ContaminantName)
		y += 20
		p.text(leftMargin, y, 12, "", black, "Date: "+v.BeginDate)
		y += 40
	}
	p.text(leftMargin, y, 12, "B", black, "What does this mean?")
	y += 25
	return p.paragraph(y, 11, "This violation does not pose an immediate health risk, but we are working to resolve it promptly.")
}

func (p *page) annual(y float64, req Request) float64 {
	sys := req.System
	p.text(leftMargin, y, 14, "B", blue, "ANNUAL WATER QUALITY REPORT")
	y += 30
	y = p.paragraph(y, 12, "This report provides information about your drinking water quality for the past year.")
	y += 40
	p.text(leftMargin, y, 12, "B", black, "System Information:")
	y += 25
	p.text(70, y, 11, "", black, "• Population Served: "+strconv.Itoa(sys.PopulationServed))
	y += 20
	p.text(70, y, 11, "", black, "• Water Source: "+sys.PrimarySource)
	y += 20
	p.text(70, y, 11, "", black, "• System Type: "+sys.Type)
	y += 20
	if t := req.Task; t != nil {
		y += 20
		p.text(leftMargin, y, 12, "B", black, "Outstanding Requirement:")
		y += 25
		p.text(70, y, 11, "", black, fmt.Sprintf("• %s (due %s, %d days overdue)", t.Name, t.Due, -t.DaysLeft))
		y += 20
	}
	return y
}
