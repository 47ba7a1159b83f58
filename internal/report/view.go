package report

import (
	"fmt"
	"strings"
	"time"

	"blum/internal/domain"
)

// View es la vista del reporte final: datos del cliente y protocolo elegido.
type View struct {
	SessionID        string
	Name             string
	Surname          string
	Email            string
	Age              int
	SkinType         string
	Concerns         []string
	Goals            []string
	Timeline         string
	Protocol         domain.Protocol
	FavorableFactors []string
	RiskFactors      []string
	MedicalWarnings  []string
	GeneratedAt      time.Time
}

// NewView arma la vista a partir del registro completado y su selección.
func NewView(rec domain.AnswerRecord, sel domain.ProtocolSelection, generatedAt time.Time) View {
	v := View{
		SessionID:        rec.SessionID,
		Age:              sel.Age,
		Protocol:         sel.Protocol,
		FavorableFactors: sel.FavorableFactors,
		RiskFactors:      sel.RiskFactors,
		MedicalWarnings:  sel.MedicalWarnings,
		GeneratedAt:      generatedAt,
	}
	if pd := rec.PersonalData; pd != nil {
		v.Name = pd.Name
		v.Surname = pd.Surname
		v.Email = pd.Email
	}
	if sp := rec.SkinProfile; sp != nil {
		v.SkinType = sp.SkinType
		v.Concerns = sp.Concerns
	}
	if g := rec.Goals; g != nil {
		v.Goals = g.Goals
		v.Timeline = g.Timeline
	}
	return v
}

// FullName devuelve nombre y apellido, o "Cliente" si faltan.
func (v View) FullName() string {
	name := strings.TrimSpace(v.Name + " " + v.Surname)
	if name == "" {
		return "Cliente"
	}
	return name
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", " ", "_", "\"", "", ":", "-")

// Filename sigue el formato BLUM_Report_<Nome>_<dd-mm-yyyy>.pdf.
func (v View) Filename() string {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		name = "Cliente"
	}
	return fmt.Sprintf("BLUM_Report_%s_%s.pdf", filenameReplacer.Replace(name), v.GeneratedAt.Format("02-01-2006"))
}

var timelineLabels = map[string]string{
	domain.TimelineImmediate: "1-3 mesi",
	domain.TimelineShort:     "3-6 mesi",
	domain.TimelineMedium:    "6-12 mesi",
	domain.TimelineLong:      "oltre 1 anno",
}

// TimelineLabel traduce el bucket de plazo a texto.
func (v View) TimelineLabel() string {
	if label, ok := timelineLabels[v.Timeline]; ok {
		return label
	}
	return v.Timeline
}
