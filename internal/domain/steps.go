package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Step identifica un paso del wizard.
type Step int

const (
	StepPersonalData Step = iota
	StepLifestyle
	StepSkinProfile
	StepGoals
	StepMedicalHistory
	StepResults
)

// TotalSteps es la cantidad fija de pasos del wizard.
const TotalSteps = 6

var stepSlugs = [TotalSteps]string{
	"personal-data",
	"lifestyle",
	"skin-profile",
	"goals",
	"medical-history",
	"results",
}

var ErrUnknownStep = errors.New("unknown step")

func (s Step) String() string {
	if s < 0 || int(s) >= TotalSteps {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepSlugs[s]
}

func (s Step) Valid() bool {
	return s >= 0 && int(s) < TotalSteps
}

// ParseStep traduce el slug usado por la API a un Step.
func ParseStep(slug string) (Step, error) {
	for i, name := range stepSlugs {
		if name == slug {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, slug)
}

// StepAnswers es la unión de respuestas por paso. Sólo los tipos de este
// paquete la implementan.
type StepAnswers interface {
	Step() Step
	apply(rec *AnswerRecord)
}

type (
	PersonalDataAnswers   PersonalData
	LifestyleAnswers      Lifestyle
	SkinProfileAnswers    SkinProfile
	GoalsAnswers          Goals
	MedicalHistoryAnswers MedicalHistory
	ResultsAnswers        struct{}
)

func (PersonalDataAnswers) Step() Step   { return StepPersonalData }
func (LifestyleAnswers) Step() Step      { return StepLifestyle }
func (SkinProfileAnswers) Step() Step    { return StepSkinProfile }
func (GoalsAnswers) Step() Step          { return StepGoals }
func (MedicalHistoryAnswers) Step() Step { return StepMedicalHistory }
func (ResultsAnswers) Step() Step        { return StepResults }

func (a PersonalDataAnswers) apply(rec *AnswerRecord) {
	pd := PersonalData(a)
	if pd.BirthDate != nil {
		bd := *pd.BirthDate
		pd.BirthDate = &bd
	}
	rec.PersonalData = &pd
}

func (a LifestyleAnswers) apply(rec *AnswerRecord) {
	ls := Lifestyle(a)
	ls.Diet = slices.Clone(ls.Diet)
	rec.Lifestyle = &ls
}

func (a SkinProfileAnswers) apply(rec *AnswerRecord) {
	sp := SkinProfile(a)
	sp.Concerns = slices.Clone(sp.Concerns)
	sp.Routine = slices.Clone(sp.Routine)
	sp.Products = slices.Clone(sp.Products)
	rec.SkinProfile = &sp
}

func (a GoalsAnswers) apply(rec *AnswerRecord) {
	g := Goals(a)
	g.Goals = slices.Clone(g.Goals)
	rec.Goals = &g
}

func (a MedicalHistoryAnswers) apply(rec *AnswerRecord) {
	mh := MedicalHistory(a)
	mh.Conditions = slices.Clone(mh.Conditions)
	mh.PreviousTreatments = slices.Clone(mh.PreviousTreatments)
	rec.MedicalHistory = &mh
}

func (ResultsAnswers) apply(*AnswerRecord) {}

// ApplyStep es el reducer: fusiona las respuestas de un paso en el registro.
// Reemplaza la sección completa del paso y no toca las demás.
func ApplyStep(rec *AnswerRecord, answers StepAnswers) {
	if rec == nil || answers == nil {
		return
	}
	answers.apply(rec)
}

// DecodeStepAnswers decodifica el payload JSON del paso indicado.
func DecodeStepAnswers(step Step, raw json.RawMessage) (StepAnswers, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var (
		out StepAnswers
		err error
	)
	switch step {
	case StepPersonalData:
		var a PersonalDataAnswers
		err = json.Unmarshal(raw, &a)
		out = a
	case StepLifestyle:
		var a LifestyleAnswers
		err = json.Unmarshal(raw, &a)
		out = a
	case StepSkinProfile:
		var a SkinProfileAnswers
		err = json.Unmarshal(raw, &a)
		out = a
	case StepGoals:
		var a GoalsAnswers
		err = json.Unmarshal(raw, &a)
		out = a
	case StepMedicalHistory:
		var a MedicalHistoryAnswers
		err = json.Unmarshal(raw, &a)
		out = a
	case StepResults:
		out = ResultsAnswers{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s answers: %w", step, err)
	}
	return out, nil
}
