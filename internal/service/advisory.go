package service

import (
	"slices"
	"strings"

	"blum/internal/domain"
)

// Textos de los factores de estilo de vida; se muestran tal cual en el reporte.
const (
	FactorActive          = "Attività fisica regolare (≥3 volte/settimana)"
	FactorRested          = "Riposo adeguato (≥7 ore/notte)"
	FactorLowStress       = "Stress sotto controllo (≤3/10)"
	FactorNonSmoker       = "Non fumatore"
	FactorBalancedDiet    = "Alimentazione equilibrata"
	FactorModerateAlcohol = "Consumo di alcol limitato"

	RiskSedentary    = "Attività fisica scarsa (<2 volte/settimana)"
	RiskShortSleep   = "Riposo insufficiente (<6 ore/notte)"
	RiskHighStress   = "Livello di stress elevato (≥7/10)"
	RiskSmoker       = "Fumatore: riduce ossigenazione e rigenerazione cutanea"
	RiskRegularDrink = "Consumo regolare di alcol"
)

// Advertencias médicas fijas, una por condición.
const (
	WarningPregnancy       = "Gravidanza o allattamento: trattamenti da rinviare o da concordare con il medico curante"
	WarningPacemaker       = "Pacemaker o dispositivi elettronici impiantati: radiofrequenza ed elettroporazione controindicate senza parere del cardiologo"
	WarningEpilepsy        = "Epilessia: evitare stimolazioni luminose ed elettriche senza parere del neurologo"
	WarningHistoryOfCancer = "Storia oncologica: necessaria autorizzazione dell'oncologo prima di iniziare il protocollo"
)

type medicalWarning struct {
	condition string
	text      string
}

// medicalWarnings conserva el orden en que se listan las advertencias.
var medicalWarnings = []medicalWarning{
	{domain.ConditionPregnancy, WarningPregnancy},
	{domain.ConditionPacemaker, WarningPacemaker},
	{domain.ConditionEpilepsy, WarningEpilepsy},
	{domain.ConditionHistoryOfCancer, WarningHistoryOfCancer},
}

func favorableFactors(ls *domain.Lifestyle) []string {
	out := []string{}
	if ls == nil {
		return out
	}
	if ls.Exercise >= 3 {
		out = append(out, FactorActive)
	}
	if ls.Sleep >= 7 {
		out = append(out, FactorRested)
	}
	if ls.Stress > 0 && ls.Stress <= 3 {
		out = append(out, FactorLowStress)
	}
	if !ls.Smoking {
		out = append(out, FactorNonSmoker)
	}
	if containsTag(ls.Diet, domain.DietBalanced) {
		out = append(out, FactorBalancedDiet)
	}
	switch normalizeTag(ls.Alcohol) {
	case domain.AlcoholNever, domain.AlcoholRarely:
		out = append(out, FactorModerateAlcohol)
	}
	return out
}

func riskFactors(ls *domain.Lifestyle) []string {
	out := []string{}
	if ls == nil {
		return out
	}
	if ls.Exercise < 2 {
		out = append(out, RiskSedentary)
	}
	if ls.Sleep < 6 {
		out = append(out, RiskShortSleep)
	}
	if ls.Stress >= 7 {
		out = append(out, RiskHighStress)
	}
	if ls.Smoking {
		out = append(out, RiskSmoker)
	}
	if normalizeTag(ls.Alcohol) == domain.AlcoholRegularly {
		out = append(out, RiskRegularDrink)
	}
	return out
}

func warningsFor(mh *domain.MedicalHistory) []string {
	out := []string{}
	if mh == nil {
		return out
	}
	for _, w := range medicalWarnings {
		present := containsTag(mh.Conditions, w.condition)
		if w.condition == domain.ConditionPregnancy && mh.Pregnancy {
			present = true
		}
		if present {
			out = append(out, w.text)
		}
	}
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func containsTag(tags []string, want string) bool {
	return slices.ContainsFunc(tags, func(t string) bool {
		return normalizeTag(t) == want
	})
}
