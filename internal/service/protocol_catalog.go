package service

import (
	"slices"

	"blum/internal/domain"
)

// catalogOrder fija el orden en que se listan los protocolos.
var catalogOrder = []domain.ProtocolID{
	domain.ProtocolGlobalRejuvenation,
	domain.ProtocolLuminosityPerfecting,
	domain.ProtocolLiftingRedefinition,
	domain.ProtocolCorrectivePostAcne,
}

var protocolCatalog = map[domain.ProtocolID]domain.Protocol{
	domain.ProtocolGlobalRejuvenation: {
		ID:           domain.ProtocolGlobalRejuvenation,
		Code:         "GRA-001",
		Name:         "Global Rejuvenation Anti-Age",
		Description:  "Protocollo completo per il ringiovanimento globale del viso con approccio multi-tecnologico",
		Sessions:     8,
		Cadence:      "ogni 10-15 giorni",
		Duration:     "3-4 mesi",
		TargetAge:    "45-65 anni",
		Technologies: []string{"BIORADIOLIFT", "DERMOPORAZIONE", "HYDRO SYSTEM"},
		Phases: []domain.Phase{
			{
				Period:           "Settimana 1-2",
				Focus:            "Preparazione e prima stimolazione",
				Technologies:     []string{"HYDRO SYSTEM", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Preparazione cutanea, prima idratazione profonda", "Miglioramento texture, pelle più luminosa"},
			},
			{
				Period:           "Settimana 3-6",
				Focus:            "Attivazione intensiva del collagene",
				Technologies:     []string{"BIORADIOLIFT", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Prime contrazioni collagene, tono migliorato", "Riduzione rughe sottili, maggiore compattezza"},
			},
			{
				Period:           "Settimana 7-10",
				Focus:            "Consolidamento e rafforzamento",
				Technologies:     []string{"BIORADIOLIFT", "HYDRO SYSTEM"},
				ExpectedOutcomes: []string{"Lifting naturale visibile, ovale più definito", "Consolidamento risultati, pelle rigenerata"},
			},
			{
				Period:           "Settimana 11-14",
				Focus:            "Perfezionamento e mantenimento",
				Technologies:     []string{"BIORADIOLIFT", "DERMOPORAZIONE", "HYDRO SYSTEM"},
				ExpectedOutcomes: []string{"Perfezionamento, massima efficacia raggiunta", "Risultato finale, protocollo completato"},
			},
		},
	},
	domain.ProtocolLuminosityPerfecting: {
		ID:           domain.ProtocolLuminosityPerfecting,
		Code:         "LPT-002",
		Name:         "Luminosity & Perfecting Texture",
		Description:  "Trattamento specializzato per ottenere l'effetto \"Glass Skin\" e perfezionare la texture cutanea",
		Sessions:     6,
		Cadence:      "ogni 7-10 giorni",
		Duration:     "2-3 mesi",
		TargetAge:    "25-40 anni",
		Technologies: []string{"OXYFLOW", "DERMOPORAZIONE", "DERMOPEEL"},
		Phases: []domain.Phase{
			{
				Period:           "Settimana 1-3",
				Focus:            "Purificazione e preparazione",
				Technologies:     []string{"DERMOPEEL", "OXYFLOW"},
				ExpectedOutcomes: []string{"Purificazione profonda, prime luminosità", "Riduzione pori, texture più uniforme"},
			},
			{
				Period:           "Settimana 4-6",
				Focus:            "Intensificazione luminosità",
				Technologies:     []string{"OXYFLOW", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Effetto glow evidente, idratazione ottimale"},
			},
			{
				Period:           "Settimana 7-9",
				Focus:            "Perfezionamento texture",
				Technologies:     []string{"DERMOPEEL", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Glass skin in formazione, trasparenza cutanea", "Perfezione texture, luminosità massima"},
			},
			{
				Period:           "Settimana 10-12",
				Focus:            "Mantenimento Glass Skin",
				Technologies:     []string{"OXYFLOW", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Glass skin completo, risultato finale"},
			},
		},
	},
	domain.ProtocolLiftingRedefinition: {
		ID:           domain.ProtocolLiftingRedefinition,
		Code:         "LR-003",
		Name:         "Lifting & Redefinition",
		Description:  "Protocollo intensivo per ridefinire l'ovale del viso e ottenere un effetto lifting non chirurgico",
		Sessions:     10,
		Cadence:      "ogni 15 giorni",
		Duration:     "4-5 mesi",
		TargetAge:    "50+ anni",
		Technologies: []string{"BIORADIOLIFT", "DERMOPORAZIONE", "HYDRO SYSTEM"},
		Phases: []domain.Phase{
			{
				Period:           "Settimana 1-4",
				Focus:            "Preparazione e prima contrazione",
				Technologies:     []string{"HYDRO SYSTEM", "BIORADIOLIFT"},
				ExpectedOutcomes: []string{"Preparazione tissutale, prime contrazioni", "Attivazione collagene profondo"},
			},
			{
				Period:           "Settimana 5-12",
				Focus:            "Lifting progressivo intensivo",
				Technologies:     []string{"BIORADIOLIFT", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Primo lifting visibile, tono migliorato", "Ridefinizione ovale in progress", "Lifting marcato, contorni definiti"},
			},
			{
				Period:           "Settimana 13-18",
				Focus:            "Consolidamento e definizione",
				Technologies:     []string{"BIORADIOLIFT", "DERMOPORAZIONE", "HYDRO SYSTEM"},
				ExpectedOutcomes: []string{"Raffinamento risultati, perfezione contorni", "Stabilizzazione completa"},
			},
			{
				Period:           "Settimana 19-20",
				Focus:            "Rifinitura finale",
				Technologies:     []string{"BIORADIOLIFT", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Perfezionamento finale", "Lifting completo non chirurgico raggiunto"},
			},
		},
	},
	domain.ProtocolCorrectivePostAcne: {
		ID:           domain.ProtocolCorrectivePostAcne,
		Code:         "CPA-004",
		Name:         "Corrective & Post-Acne",
		Description:  "Trattamento correttivo specializzato per cicatrici post-acneiche e uniformità del colorito",
		Sessions:     8,
		Cadence:      "ogni 15-20 giorni",
		Duration:     "3-4 mesi",
		TargetAge:    "tutte le età",
		Technologies: []string{"DERMOPEEL", "DERMOPORAZIONE", "BIORADIOLIFT"},
		Phases: []domain.Phase{
			{
				Period:           "Settimana 1-4",
				Focus:            "Rigenerazione tissutale iniziale",
				Technologies:     []string{"DERMOPEEL", "DERMOPORAZIONE"},
				ExpectedOutcomes: []string{"Stimolazione rigenerazione, prima levigatura", "Riduzione cicatrici superficiali"},
			},
			{
				Period:           "Settimana 5-10",
				Focus:            "Correzione intensiva cicatrici",
				Technologies:     []string{"DERMOPEEL", "BIORADIOLIFT"},
				ExpectedOutcomes: []string{"Miglioramento texture, uniformità in progress", "Correzione cicatrici medie, colorito più uniforme"},
			},
			{
				Period:           "Settimana 11-14",
				Focus:            "Uniformazione colorito",
				Technologies:     []string{"DERMOPORAZIONE", "BIORADIOLIFT"},
				ExpectedOutcomes: []string{"Levigatura significativa, macchie schiarite"},
			},
			{
				Period:           "Settimana 15-16",
				Focus:            "Perfezionamento finale",
				Technologies:     []string{"DERMOPEEL", "DERMOPORAZIONE", "BIORADIOLIFT"},
				ExpectedOutcomes: []string{"Pelle uniforme e levigata, risultato finale"},
			},
		},
	},
}

// Catalog devuelve los cuatro protocolos en orden de presentación.
func Catalog() []domain.Protocol {
	out := make([]domain.Protocol, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		out = append(out, cloneProtocol(protocolCatalog[id]))
	}
	return out
}

// LookupProtocol busca un protocolo por id.
func LookupProtocol(id domain.ProtocolID) (domain.Protocol, bool) {
	p, ok := protocolCatalog[id]
	if !ok {
		return domain.Protocol{}, false
	}
	return cloneProtocol(p), true
}

func cloneProtocol(p domain.Protocol) domain.Protocol {
	p.Technologies = slices.Clone(p.Technologies)
	phases := make([]domain.Phase, len(p.Phases))
	for i, ph := range p.Phases {
		ph.Technologies = slices.Clone(ph.Technologies)
		ph.ExpectedOutcomes = slices.Clone(ph.ExpectedOutcomes)
		phases[i] = ph
	}
	p.Phases = phases
	return p
}
