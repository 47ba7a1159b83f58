package domain

// ProtocolID identifica uno de los cuatro protocolos del catálogo.
type ProtocolID string

const (
	ProtocolLiftingRedefinition  ProtocolID = "lifting-redefinition"
	ProtocolGlobalRejuvenation   ProtocolID = "global-rejuvenation"
	ProtocolCorrectivePostAcne   ProtocolID = "corrective-post-acne"
	ProtocolLuminosityPerfecting ProtocolID = "luminosity-perfecting"
)

// DefaultProtocol es el protocolo devuelto cuando ninguna regla aplica
// o cuando la entrada no se puede interpretar.
const DefaultProtocol = ProtocolLuminosityPerfecting

// Phase es una fase del recorrido con sus tecnologías y resultados esperados.
type Phase struct {
	Period           string   `json:"period"`
	Focus            string   `json:"focus"`
	Technologies     []string `json:"technologies"`
	ExpectedOutcomes []string `json:"expected_outcomes"`
}

// Protocol contiene los metadatos estáticos de un tratamiento.
type Protocol struct {
	ID           ProtocolID `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Sessions     int        `json:"sessions"`
	Cadence      string     `json:"cadence"`
	Duration     string     `json:"duration"`
	TargetAge    string     `json:"target_age"`
	Technologies []string   `json:"technologies"`
	Phases       []Phase    `json:"phases"`
}

// ProtocolSelection es la salida del resolver. Se recalcula a demanda.
type ProtocolSelection struct {
	ProtocolID       ProtocolID `json:"protocol_id"`
	Protocol         Protocol   `json:"protocol"`
	Age              int        `json:"age"`
	FavorableFactors []string   `json:"favorable_factors"`
	RiskFactors      []string   `json:"risk_factors"`
	MedicalWarnings  []string   `json:"medical_warnings"`
	Fallback         bool       `json:"fallback,omitempty"`
}

// HasMedicalWarnings indica si el reporte debe destacar advertencias.
func (s ProtocolSelection) HasMedicalWarnings() bool {
	return len(s.MedicalWarnings) > 0
}
