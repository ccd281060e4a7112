// Package label renders print-ready medication labels. The output is a
// self-contained HTML document sized for 50mm x 30mm label stock that
// triggers the browser print dialog on load.
package label

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/hmansour/medilabel/internal/expiry"
	"github.com/hmansour/medilabel/internal/model"
)

//go:embed labels.html
var labelsHTML string

var labelsTmpl = template.Must(template.New("labels").Parse(labelsHTML))

// ErrMissingPrintContext means no items, no patient or no user was given;
// labels are never generated without all three.
var ErrMissingPrintContext = errors.New("label generation requires items, a patient and a user")

// Instance is one physical label. A basket line with quantity N produces N
// identical instances.
type Instance struct {
	MRN         string
	NationalID  string
	PatientName string
	DrugName    string
	Instruction string
	Expiry      string
	PrintedBy   string
	PrintDate   string
}

type Generator struct {
	pharmacyName string
}

func NewGenerator(pharmacyName string) *Generator {
	return &Generator{pharmacyName: pharmacyName}
}

// Generate expands basket lines into label instances, one per copy, in
// basket order. Expiry display and the national id fallback are resolved
// here so the template stays dumb.
func (g *Generator) Generate(items []model.LineItem, patient *model.Patient, user model.User, now time.Time) ([]Instance, error) {
	if len(items) == 0 || patient == nil || user.Username == "" {
		return nil, ErrMissingPrintContext
	}

	printDate := now.Format("02/01/2006")
	nationalID := patient.NationalID
	if nationalID == "" {
		nationalID = "N/A"
	}

	var labels []Instance
	for _, item := range items {
		inst := Instance{
			MRN:         patient.MRN(),
			NationalID:  nationalID,
			PatientName: patient.PatientName,
			DrugName:    item.DrugName,
			Instruction: item.InstructionText,
			Expiry:      expiry.LabelDisplay(item.RequiresExpiry, item.ExpiryDate),
			PrintedBy:   user.FullName,
			PrintDate:   printDate,
		}
		for i := 0; i < item.PrintQuantity; i++ {
			labels = append(labels, inst)
		}
	}
	return labels, nil
}

// RenderHTML produces the printable document for a set of label instances.
func (g *Generator) RenderHTML(labels []Instance) (string, error) {
	var buf bytes.Buffer
	data := struct {
		PharmacyName string
		Labels       []Instance
	}{
		PharmacyName: g.pharmacyName,
		Labels:       labels,
	}
	if err := labelsTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render labels: %w", err)
	}
	return buf.String(), nil
}
