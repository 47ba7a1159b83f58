package domain

// Problemáticas cutáneas reconocidas por el resolver de protocolos.
const (
	ConcernSagging      = "sagging"
	ConcernDeepWrinkles = "deep-wrinkles"
	ConcernWrinkles     = "wrinkles"
	ConcernLossOfTone   = "loss-of-tone"
	ConcernDarkSpots    = "dark-spots"
	ConcernScars        = "scars"
	ConcernAcne         = "acne"
	ConcernPores        = "pores"
	ConcernDullness     = "dullness"
	ConcernRosacea      = "rosacea"
)

// Condiciones médicas que generan advertencias.
const (
	ConditionPregnancy       = "pregnancy"
	ConditionPacemaker       = "pacemaker"
	ConditionEpilepsy        = "epilepsy"
	ConditionHistoryOfCancer = "history-of-cancer"
)

const DietBalanced = "balanced"

const (
	AlcoholNever        = "never"
	AlcoholRarely       = "rarely"
	AlcoholOccasionally = "occasionally"
	AlcoholRegularly    = "regularly"
)

const (
	TimelineImmediate = "immediate" // 1-3 meses
	TimelineShort     = "short"     // 3-6 meses
	TimelineMedium    = "medium"    // 6-12 meses
	TimelineLong      = "long"      // 1+ años
)
