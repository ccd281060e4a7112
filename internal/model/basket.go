package model

// LineItem is one basket entry staged for printing. Quantity is the number
// of physical label copies; ExpiryDate is always the concatenation
// month/year and is non-empty exactly when both parts are set.
type LineItem struct {
	ID              string `json:"id"`
	DrugName        string `json:"drugName"`
	InstructionText string `json:"instructionText"`
	PrintQuantity   int    `json:"printQuantity"`
	ExpiryMonth     string `json:"expiryMonth"`
	ExpiryYear      string `json:"expiryYear"`
	ExpiryDate      string `json:"expiryDate"`
	RequiresExpiry  bool   `json:"requiresExpiryDate"`
	FromGroup       string `json:"fromGroup,omitempty"`
}
