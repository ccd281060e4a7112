package model

import "github.com/hmansour/medilabel/internal/expiry"

// Drug is a catalog medication as served by the backend. Field tags follow
// the backend's wire names, which mix casing styles; requires_expiry_date
// arrives as bool, number, or string and is normalized on decode.
type Drug struct {
	DrugID            int64       `json:"DrugID,omitempty"`
	DrugName          string      `json:"DrugName"`
	Instruction       string      `json:"Instruction"`
	ActiveIngredient  string      `json:"active_ingredient,omitempty"`
	InternationalCode string      `json:"InternationalCode,omitempty"`
	RequiresExpiry    expiry.Flag `json:"requires_expiry_date"`
}
