package model

import "github.com/hmansour/medilabel/internal/expiry"

// GroupSummary is a medication protocol as listed by the backend. The
// summary omits per-drug data; expansion always fetches the full detail.
type GroupSummary struct {
	GroupID     int64  `json:"groupId"`
	GroupName   string `json:"groupName"`
	Description string `json:"description"`
	DrugCount   int    `json:"drugCount"`
}

// GroupDetail is the full protocol including its drug list.
type GroupDetail struct {
	GroupID     int64       `json:"groupId"`
	GroupName   string      `json:"groupName"`
	Description string      `json:"description"`
	DrugCount   int         `json:"drugCount"`
	Drugs       []GroupDrug `json:"drugs"`
}

// GroupDrug is one drug within a protocol, carrying the default label
// quantity applied when the protocol is expanded into the basket.
type GroupDrug struct {
	DrugID           int64       `json:"drugId,omitempty"`
	DrugName         string      `json:"DrugName"`
	Instruction      string      `json:"Instruction"`
	ActiveIngredient string      `json:"active_ingredient,omitempty"`
	RequiresExpiry   expiry.Flag `json:"requires_expiry_date"`
	DefaultQuantity  int         `json:"defaultQuantity"`
}
