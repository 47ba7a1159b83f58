package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"blum/internal/domain"
)

// ValidationError agrupa los errores de campo de un paso. Las claves son los
// nombres JSON de los campos (por ejemplo "consents.data_processing").
type ValidationError struct {
	Step   domain.Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed for step %s: %s", e.Step, strings.Join(keys, ", "))
}

// Mensajes visibles para el usuario final.
const (
	msgRequired     = "Campo obbligatorio"
	msgEmail        = "Email non valida"
	msgPhone        = "Numero non valido"
	msgInvalid      = "Valore non valido"
	msgSelectOne    = "Seleziona almeno un'opzione"
	msgStepMismatch = "Passo non corrispondente"
	msgConsent      = "Il consenso al trattamento dei dati è obbligatorio"
)

var phonePattern = regexp.MustCompile(`^[\+]?[(]?[\+]?[(]?([0-9\s\-\(\)]*)[\)]?[\)]?$`)

const minPhoneLength = 10

var (
	validatorOnce sync.Once
	stepValidate  *validator.Validate
)

func answersValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return validPhone(fl.Field().String())
		})
		stepValidate = v
	})
	return stepValidate
}

func validPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	return len(phone) >= minPhoneLength && phonePattern.MatchString(phone)
}

// ValidateStep normaliza y valida las respuestas de un paso.
func ValidateStep(answers domain.StepAnswers) (domain.StepAnswers, error) {
	if answers == nil {
		return nil, &ValidationError{Fields: map[string]string{"step": msgRequired}}
	}
	answers = normalizeAnswers(answers)
	if _, ok := answers.(domain.ResultsAnswers); ok {
		return answers, nil
	}

	err := answersValidator().Struct(answers)
	if err == nil {
		return answers, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate %s: %w", answers.Step(), err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		if _, exists := fields[key]; exists {
			continue
		}
		fields[key] = messageFor(fe)
	}
	return nil, &ValidationError{Step: answers.Step(), Fields: fields}
}

// fieldKey quita el nombre del tipo raíz y los índices de slices.
func fieldKey(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	if i := strings.IndexByte(rest, '['); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return msgConsent
		}
		return msgRequired
	case "email":
		return msgEmail
	case "phone":
		return msgPhone
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return msgSelectOne
		case reflect.String:
			return fmt.Sprintf("Inserisci almeno %s caratteri", fe.Param())
		}
		return fmt.Sprintf("Il valore minimo è %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Massimo %s caratteri", fe.Param())
		}
		return fmt.Sprintf("Il valore massimo è %s", fe.Param())
	}
	return msgInvalid
}

func normalizeAnswers(answers domain.StepAnswers) domain.StepAnswers {
	switch a := answers.(type) {
	case domain.PersonalDataAnswers:
		a.Name = strings.TrimSpace(a.Name)
		a.Surname = strings.TrimSpace(a.Surname)
		a.Email = strings.TrimSpace(a.Email)
		a.Phone = strings.TrimSpace(a.Phone)
		a.Age = domain.AgeText(strings.TrimSpace(string(a.Age)))
		return a
	case domain.LifestyleAnswers:
		a.Diet = trimTags(a.Diet)
		a.Alcohol = normalizeTag(a.Alcohol)
		return a
	case domain.SkinProfileAnswers:
		a.SkinType = strings.TrimSpace(a.SkinType)
		a.Concerns = trimTags(a.Concerns)
		a.Routine = trimTags(a.Routine)
		a.Products = trimTags(a.Products)
		return a
	case domain.GoalsAnswers:
		a.Goals = trimTags(a.Goals)
		a.Timeline = normalizeTag(a.Timeline)
		a.Budget = strings.TrimSpace(a.Budget)
		a.AdditionalInfo = strings.TrimSpace(a.AdditionalInfo)
		return a
	case domain.MedicalHistoryAnswers:
		a.Conditions = trimTags(a.Conditions)
		a.PreviousTreatments = trimTags(a.PreviousTreatments)
		a.Medications = strings.TrimSpace(a.Medications)
		a.Allergies = strings.TrimSpace(a.Allergies)
		return a
	}
	return answers
}

// trimTags descarta etiquetas vacías y normaliza el resto.
func trimTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
