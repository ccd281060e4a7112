package model

// Patient is the person labels are printed for. At most one patient is
// active per session; clearing the active patient never touches the basket.
type Patient struct {
	PatientID   string `json:"patientId"`
	Year        string `json:"year"`
	PatientName string `json:"patientName"`
	NationalID  string `json:"nationalId"`
	FullID      string `json:"fullId"`
}

// MRN returns the patient's full identifier (patient id / year) as printed
// on labels.
func (p Patient) MRN() string {
	if p.FullID != "" {
		return p.FullID
	}
	return p.PatientID + "/" + p.Year
}
