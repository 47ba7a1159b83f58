package sheets

import (
	"strconv"
	"strings"
	"time"

	"blum/internal/domain"
)

// Columns es el esquema de la planilla. El orden es parte del contrato con
// el Apps Script receptor: cambiarlo exige migrar la hoja en paralelo.
var Columns = []string{
	"timestamp",
	"name",
	"surname",
	"email",
	"phone",
	"consent_data_processing",
	"consent_marketing",
	"consent_photos",
	"diet",
	"exercise",
	"sleep",
	"stress",
	"smoking",
	"alcohol",
	"skin_type",
	"concerns",
	"routine",
	"products",
	"goals",
	"timeline",
	"additional_info",
	"conditions",
	"medications",
	"allergies",
	"selected_protocol",
}

// Headers son los títulos visibles de la fila 1 de la hoja, en el mismo orden que Columns.
var Headers = []string{
	"Timestamp",
	"Nome",
	"Cognome",
	"Email",
	"Telefono",
	"Consenso Dati",
	"Consenso Marketing",
	"Consenso Foto",
	"Alimentazione",
	"Esercizio",
	"Sonno",
	"Stress",
	"Fumo",
	"Alcol",
	"Tipo Pelle",
	"Problematiche",
	"Routine",
	"Prodotti",
	"Obiettivi",
	"Timeline",
	"Info Extra",
	"Condizioni",
	"Farmaci",
	"Allergie",
	"Protocollo",
}

const listSeparator = ", "

// Flatten convierte el registro en una fila de strings en el orden de Columns.
// Las secciones ausentes quedan como celdas vacías.
func Flatten(rec domain.AnswerRecord, protocolID domain.ProtocolID, ts time.Time) []string {
	row := make([]string, len(Columns))
	row[0] = ts.UTC().Format(time.RFC3339)

	if pd := rec.PersonalData; pd != nil {
		row[1] = pd.Name
		row[2] = pd.Surname
		row[3] = pd.Email
		row[4] = pd.Phone
		row[5] = strconv.FormatBool(pd.Consents.DataProcessing)
		row[6] = strconv.FormatBool(pd.Consents.Marketing)
		row[7] = strconv.FormatBool(pd.Consents.Photos)
	}
	if ls := rec.Lifestyle; ls != nil {
		row[8] = strings.Join(ls.Diet, listSeparator)
		row[9] = strconv.Itoa(ls.Exercise)
		row[10] = strconv.Itoa(ls.Sleep)
		row[11] = strconv.Itoa(ls.Stress)
		row[12] = strconv.FormatBool(ls.Smoking)
		row[13] = ls.Alcohol
	}
	if sp := rec.SkinProfile; sp != nil {
		row[14] = sp.SkinType
		row[15] = strings.Join(sp.Concerns, listSeparator)
		row[16] = strings.Join(sp.Routine, listSeparator)
		row[17] = strings.Join(sp.Products, listSeparator)
	}
	if g := rec.Goals; g != nil {
		row[18] = strings.Join(g.Goals, listSeparator)
		row[19] = g.Timeline
		row[20] = g.AdditionalInfo
	}
	if mh := rec.MedicalHistory; mh != nil {
		row[21] = strings.Join(mh.Conditions, listSeparator)
		row[22] = mh.Medications
		row[23] = mh.Allergies
	}
	row[24] = string(protocolID)
	return row
}
