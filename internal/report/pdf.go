package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 18.0
	lineHeight = 6.0
)

// PDFRenderer genera el reporte en A4.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render devuelve los bytes del PDF.
func (r *PDFRenderer) Render(v View) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("BLUM Report", true)
	pdf.SetAuthor("BLUM", true)
	if !v.GeneratedAt.IsZero() {
		pdf.SetCreationDate(v.GeneratedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("BLUM - pagina %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 10, tr("Report di consulenza BLUM"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, lineHeight, tr("Generato il "+v.GeneratedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, tr, "Profilo cliente")
	keyValue(pdf, tr, "Cliente", v.FullName())
	if v.Email != "" {
		keyValue(pdf, tr, "Email", v.Email)
	}
	keyValue(pdf, tr, "Età", fmt.Sprintf("%d anni", v.Age))
	if v.SkinType != "" {
		keyValue(pdf, tr, "Tipo di pelle", v.SkinType)
	}
	if len(v.Concerns) > 0 {
		keyValue(pdf, tr, "Inestetismi", strings.Join(v.Concerns, ", "))
	}
	if len(v.Goals) > 0 {
		keyValue(pdf, tr, "Obiettivi", strings.Join(v.Goals, ", "))
	}
	if v.Timeline != "" {
		keyValue(pdf, tr, "Tempistica", v.TimelineLabel())
	}
	pdf.Ln(3)

	if len(v.MedicalWarnings) > 0 {
		pdf.SetFillColor(253, 236, 234)
		pdf.SetTextColor(160, 30, 30)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr("Avvertenze mediche"), "", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, w := range v.MedicalWarnings {
			pdf.MultiCell(0, lineHeight, tr("- "+w), "", "L", true)
		}
		pdf.SetTextColor(40, 40, 40)
		pdf.Ln(3)
	}

	p := v.Protocol
	section(pdf, tr, "Protocollo consigliato")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s (%s)", p.Name, p.Code)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if p.Description != "" {
		pdf.MultiCell(0, lineHeight, tr(p.Description), "", "L", false)
	}
	keyValue(pdf, tr, "Sedute", fmt.Sprintf("%d", p.Sessions))
	keyValue(pdf, tr, "Frequenza", p.Cadence)
	keyValue(pdf, tr, "Durata", p.Duration)
	keyValue(pdf, tr, "Età target", p.TargetAge)
	keyValue(pdf, tr, "Tecnologie", strings.Join(p.Technologies, ", "))
	pdf.Ln(3)

	if len(p.Phases) > 0 {
		section(pdf, tr, "Fasi del trattamento")
		for _, ph := range p.Phases {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, lineHeight, tr(ph.Period+": "+ph.Focus), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			if len(ph.Technologies) > 0 {
				pdf.MultiCell(0, lineHeight, tr("Tecnologie: "+strings.Join(ph.Technologies, ", ")), "", "L", false)
			}
			for _, outcome := range ph.ExpectedOutcomes {
				pdf.MultiCell(0, lineHeight, tr("- "+outcome), "", "L", false)
			}
			pdf.Ln(1)
		}
		pdf.Ln(2)
	}

	bulletList(pdf, tr, "Punti di forza", v.FavorableFactors)
	bulletList(pdf, tr, "Fattori di rischio", v.RiskFactors)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 10)
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, lineHeight, tr(key), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, tr(value), "", "L", false)
}

func bulletList(pdf *fpdf.Fpdf, tr func(string) string, title string, items []string) {
	if len(items) == 0 {
		return
	}
	section(pdf, tr, title)
	for _, item := range items {
		pdf.MultiCell(0, lineHeight, tr("- "+item), "", "L", false)
	}
	pdf.Ln(2)
}
