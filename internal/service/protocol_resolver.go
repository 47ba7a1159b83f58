package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blum/internal/domain"
)

const defaultAge = 30

var errOutOfRange = errors.New("lifestyle value out of range")

// protocolRule es una regla de la cascada; la primera que aplica gana.
type protocolRule struct {
	protocol domain.ProtocolID
	minAge   int
	concerns []string
}

func (r protocolRule) matches(age int, concerns []string) bool {
	if age < r.minAge {
		return false
	}
	for _, c := range r.concerns {
		if containsTag(concerns, c) {
			return true
		}
	}
	return false
}

var protocolRules = []protocolRule{
	{
		protocol: domain.ProtocolLiftingRedefinition,
		minAge:   50,
		concerns: []string{domain.ConcernSagging, domain.ConcernDeepWrinkles},
	},
	{
		protocol: domain.ProtocolGlobalRejuvenation,
		minAge:   45,
		concerns: []string{domain.ConcernWrinkles, domain.ConcernLossOfTone},
	},
	{
		protocol: domain.ProtocolCorrectivePostAcne,
		concerns: []string{domain.ConcernDarkSpots, domain.ConcernScars, domain.ConcernAcne},
	},
}

// Resolve asigna un protocolo al registro y calcula las advertencias.
// No devuelve errores: ante entradas inválidas responde con el protocolo por
// defecto, listas vacías y Fallback en true.
func Resolve(rec *domain.AnswerRecord) (sel domain.ProtocolSelection) {
	defer func() {
		if recover() != nil {
			sel = fallbackSelection()
		}
	}()

	if rec == nil {
		return fallbackSelection()
	}
	if err := checkRanges(rec.Lifestyle); err != nil {
		return fallbackSelection()
	}

	age := DeriveAge(rec)
	id := selectProtocol(age, rec.Concerns())
	protocol, ok := LookupProtocol(id)
	if !ok {
		return fallbackSelection()
	}
	return domain.ProtocolSelection{
		ProtocolID:       id,
		Protocol:         protocol,
		Age:              age,
		FavorableFactors: favorableFactors(rec.Lifestyle),
		RiskFactors:      riskFactors(rec.Lifestyle),
		MedicalWarnings:  warningsFor(rec.MedicalHistory),
	}
}

// ResolveJSON decodifica un AnswerRecord y lo resuelve. Un payload ilegible
// produce la selección por defecto.
func ResolveJSON(raw []byte) domain.ProtocolSelection {
	var rec domain.AnswerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fallbackSelection()
	}
	return Resolve(&rec)
}

func selectProtocol(age int, concerns []string) domain.ProtocolID {
	for _, rule := range protocolRules {
		if rule.matches(age, concerns) {
			return rule.protocol
		}
	}
	return domain.DefaultProtocol
}

// DeriveAge usa la edad declarada (1..120), luego la fecha de nacimiento
// respecto del momento de cierre del registro, y si no hay datos 30.
func DeriveAge(rec *domain.AnswerRecord) int {
	if rec == nil || rec.PersonalData == nil {
		return defaultAge
	}
	if age, err := strconv.Atoi(strings.TrimSpace(string(rec.PersonalData.Age))); err == nil && age >= 1 && age <= 120 {
		return age
	}
	if bd := rec.PersonalData.BirthDate; bd != nil {
		ref := rec.UpdatedAt
		if rec.CompletedAt != nil {
			ref = *rec.CompletedAt
		}
		if !ref.IsZero() {
			if age := yearsBetween(*bd, ref); age >= 1 && age <= 120 {
				return age
			}
		}
	}
	return defaultAge
}

func yearsBetween(birth, ref time.Time) int {
	birth = birth.UTC()
	ref = ref.UTC()
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

func checkRanges(ls *domain.Lifestyle) error {
	if ls == nil {
		return nil
	}
	switch {
	case ls.Exercise < 0 || ls.Exercise > 14:
		return fmt.Errorf("%w: exercise=%d", errOutOfRange, ls.Exercise)
	case ls.Sleep < 0 || ls.Sleep > 24:
		return fmt.Errorf("%w: sleep=%d", errOutOfRange, ls.Sleep)
	case ls.Stress < 0 || ls.Stress > 10:
		return fmt.Errorf("%w: stress=%d", errOutOfRange, ls.Stress)
	}
	return nil
}

func fallbackSelection() domain.ProtocolSelection {
	protocol, _ := LookupProtocol(domain.DefaultProtocol)
	return domain.ProtocolSelection{
		ProtocolID:       domain.DefaultProtocol,
		Protocol:         protocol,
		Age:              defaultAge,
		FavorableFactors: []string{},
		RiskFactors:      []string{},
		MedicalWarnings:  []string{},
		Fallback:         true,
	}
}
