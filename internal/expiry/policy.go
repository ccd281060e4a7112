// Package expiry normalizes the backend's loosely typed requires-expiry flag
// and formats expiry text for labels and exports. The backend emits the flag
// as a boolean, a number, or a string depending on which tool wrote the row,
// so normalization happens once here and the rest of the codebase only ever
// sees a bool.
package expiry

import (
	"encoding/json"
	"strings"
)

const (
	// ContainerFallback is printed on a label when no usable expiry date
	// applies to the item.
	ContainerFallback = "Specified On The Item's Container"

	// ExportContainerFallback is the export column value for items that do
	// not require an expiry date.
	ExportContainerFallback = "Specified On Container"

	// ExportNotSet is the export column value for items that required an
	// expiry date but were printed without one recorded.
	ExportNotSet = "N/A"
)

// Normalize maps any wire form of the requires-expiry flag to a strict bool.
// Only the explicit negative forms (false, 0, "0", "false") disable the
// requirement. Everything else, including an absent value, requires an
// expiry date.
func Normalize(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case json.Number:
		return x.String() != "0"
	case string:
		return x != "0" && x != "false"
	default:
		return true
	}
}

// Flag is a requires-expiry flag parsed at the data-ingestion boundary. It
// accepts booleans, numbers, and strings alike; the zero value (field absent
// from the payload) reports true.
type Flag struct {
	present bool
	value   bool
}

// FlagOf wraps an already-normalized bool, mostly for tests and fixtures.
func FlagOf(v bool) Flag {
	return Flag{present: true, value: v}
}

// Bool reports whether an expiry date is required.
func (f Flag) Bool() bool {
	if !f.present {
		return true
	}
	return f.value
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.present = true
	f.value = Normalize(v)
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Bool())
}

// LabelDisplay returns the expiry text printed on a label. A stored MM/YY
// date is widened to MM/20YY; items without a required or usable date fall
// back to the container text.
func LabelDisplay(requires bool, date string) string {
	if !requires {
		return ContainerFallback
	}
	if month, year, ok := strings.Cut(date, "/"); ok && month != "" && year != "" {
		return month + "/20" + year
	}
	if date != "" {
		return date
	}
	return ContainerFallback
}

// ExportDisplay returns the expiry column value for the audit export.
func ExportDisplay(requires bool, date string) string {
	if date != "" {
		return date
	}
	if !requires {
		return ExportContainerFallback
	}
	return ExportNotSet
}
