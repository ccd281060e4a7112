package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/hmansour/medilabel/internal/expiry"
	"github.com/hmansour/medilabel/internal/model"
)

var exportHeader = []string{
	"Timestamp",
	"Patient ID",
	"Patient Name",
	"Drug Name",
	"Instructions",
	"Expiry Date",
	"Requires Expiry Date",
	"Quantity",
	"Printed By",
	"Basket Preserved",
	"From Group",
}

// ExportCSV renders the full audit log as UTF-8 CSV with a byte order mark
// so spreadsheet tools pick up the encoding. Exporting an empty log is
// refused.
func ExportCSV(entries []model.AuditEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.Local().Format("02/01/2006, 15:04:05"),
			e.PatientID + "/" + e.PatientYear,
			e.PatientName,
			e.DrugName,
			e.InstructionText,
			expiry.ExportDisplay(e.RequiresExpiry, e.ExpiryDate),
			yesNo(e.RequiresExpiry),
			fmt.Sprint(e.PrintQuantity),
			e.PrintedBy,
			yesNo(e.BasketPreserved),
			e.FromGroup,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns the dated download name for an export.
func FileName(now time.Time) string {
	return "medication_audit_logs_" + now.Format("2006-01-02") + ".csv"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
