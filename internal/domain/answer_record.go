package domain

import (
	"slices"
	"time"
)

// RecordStatus describe el ciclo de vida de un cuestionario.
type RecordStatus string

const (
	StatusDraft     RecordStatus = "draft"
	StatusCompleted RecordStatus = "completed"
	StatusProcessed RecordStatus = "processed" // lo asigna el replay externo, nunca el wizard
)

// AnswerRecord acumula las respuestas parciales de una sesión del wizard.
// Las secciones de pasos aún no visitados quedan en nil.
type AnswerRecord struct {
	SessionID      string          `json:"session_id,omitempty"`
	PersonalData   *PersonalData   `json:"personal_data,omitempty"`
	Lifestyle      *Lifestyle      `json:"lifestyle,omitempty"`
	SkinProfile    *SkinProfile    `json:"skin_profile,omitempty"`
	Goals          *Goals          `json:"goals,omitempty"`
	MedicalHistory *MedicalHistory `json:"medical_history,omitempty"`
	CurrentStep    int             `json:"current_step"`
	Status         RecordStatus    `json:"status"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Consents struct {
	DataProcessing bool `json:"data_processing" validate:"required"` // obligatorio GDPR
	Marketing      bool `json:"marketing"`
	Photos         bool `json:"photos"`
}

type PersonalData struct {
	Name      string     `json:"name" validate:"required,min=2"`
	Surname   string     `json:"surname" validate:"required,min=2"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"required,phone"`
	Age       AgeText    `json:"age,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Consents  Consents   `json:"consents"`
}

type Lifestyle struct {
	Diet     []string `json:"diet" validate:"min=1,dive,required"`
	Exercise int      `json:"exercise" validate:"min=0,max=7"` // veces por semana
	Sleep    int      `json:"sleep" validate:"min=0,max=24"`   // horas por noche
	Stress   int      `json:"stress,omitempty" validate:"omitempty,min=1,max=10"`
	Smoking  bool     `json:"smoking"`
	Alcohol  string   `json:"alcohol,omitempty" validate:"omitempty,oneof=never rarely occasionally regularly"`
}

type SkinProfile struct {
	SkinType string   `json:"skin_type" validate:"required"`
	Concerns []string `json:"concerns" validate:"min=1,dive,required"`
	Routine  []string `json:"routine,omitempty"`
	Products []string `json:"products,omitempty"`
}

type Goals struct {
	Goals          []string `json:"goals" validate:"min=1,dive,required"`
	Timeline       string   `json:"timeline" validate:"required,oneof=immediate short medium long"`
	Budget         string   `json:"budget,omitempty"`
	AdditionalInfo string   `json:"additional_info,omitempty" validate:"max=2000"`
}

type MedicalHistory struct {
	Conditions         []string `json:"conditions,omitempty"`
	Medications        string   `json:"medications,omitempty" validate:"max=2000"`
	Allergies          string   `json:"allergies,omitempty" validate:"max=2000"`
	PreviousTreatments []string `json:"previous_treatments,omitempty"`
	Pregnancy          bool     `json:"pregnancy"`
}

// NewAnswerRecord crea un registro vacío en estado draft.
func NewAnswerRecord(sessionID string, now time.Time) AnswerRecord {
	return AnswerRecord{
		SessionID: sessionID,
		Status:    StatusDraft,
		UpdatedAt: now.UTC(),
	}
}

// Clone devuelve una copia profunda; los snapshots nunca comparten memoria con el registro vivo.
func (r AnswerRecord) Clone() AnswerRecord {
	out := r
	if r.PersonalData != nil {
		pd := *r.PersonalData
		if pd.BirthDate != nil {
			bd := *pd.BirthDate
			pd.BirthDate = &bd
		}
		out.PersonalData = &pd
	}
	if r.Lifestyle != nil {
		ls := *r.Lifestyle
		ls.Diet = slices.Clone(ls.Diet)
		out.Lifestyle = &ls
	}
	if r.SkinProfile != nil {
		sp := *r.SkinProfile
		sp.Concerns = slices.Clone(sp.Concerns)
		sp.Routine = slices.Clone(sp.Routine)
		sp.Products = slices.Clone(sp.Products)
		out.SkinProfile = &sp
	}
	if r.Goals != nil {
		g := *r.Goals
		g.Goals = slices.Clone(g.Goals)
		out.Goals = &g
	}
	if r.MedicalHistory != nil {
		mh := *r.MedicalHistory
		mh.Conditions = slices.Clone(mh.Conditions)
		mh.PreviousTreatments = slices.Clone(mh.PreviousTreatments)
		out.MedicalHistory = &mh
	}
	if r.CompletedAt != nil {
		ts := *r.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

// Email devuelve el email del registro o "" si el paso de datos personales falta.
func (r AnswerRecord) Email() string {
	if r.PersonalData == nil {
		return ""
	}
	return r.PersonalData.Email
}

// Concerns devuelve las problemáticas declaradas (nil si el perfil de piel falta).
func (r AnswerRecord) Concerns() []string {
	if r.SkinProfile == nil {
		return nil
	}
	return r.SkinProfile.Concerns
}
