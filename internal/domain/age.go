package domain

import (
	"bytes"
	"encoding/json"
)

// AgeText es la edad declarada tal como llegó. En JSON acepta string o número;
// cualquier otro valor queda vacío y el resolver usa la edad por defecto.
type AgeText string

func (a *AgeText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*a = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AgeText(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = AgeText(n.String())
	default:
		*a = ""
	}
	return nil
}
