package ledger

import (
	"sort"

	"github.com/hackgods/patient-ledger/internal/money"
)

// Patient is keyed by identity in Patients; the identity is not repeated here.
type Patient struct {
	Name    string       `json:"name"`
	Age     int          `json:"age"`
	Balance money.Amount `json:"balance"`
}

type Appointment struct {
	PatientID string       `json:"patientId"`
	Date      string       `json:"date"`
	Doctor    string       `json:"doctor"`
	Fee       money.Amount `json:"fee"`
}

// Patients maps identity to Patient. Keys are unique.
type Patients struct {
	byID map[string]Patient
}

func NewPatients() *Patients {
	return &Patients{byID: make(map[string]Patient)}
}

func (p *Patients) Get(id string) (Patient, bool) {
	pt, ok := p.byID[id]
	return pt, ok
}

func (p *Patients) Has(id string) bool {
	_, ok := p.byID[id]
	return ok
}

// Put inserts or replaces the record for id.
func (p *Patients) Put(id string, pt Patient) {
	if p.byID == nil {
		p.byID = make(map[string]Patient)
	}
	p.byID[id] = pt
}

func (p *Patients) Len() int { return len(p.byID) }

// IDs returns every identity in ascending order.
func (p *Patients) IDs() []string {
	ids := make([]string, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Appointments is kept in creation order.
type Appointments []Appointment

// ForPatient returns the patient's appointments in creation order. The result
// is never nil.
func (a Appointments) ForPatient(patientID string) []Appointment {
	out := make([]Appointment, 0)
	for _, appt := range a {
		if appt.PatientID == patientID {
			out = append(out, appt)
		}
	}
	return out
}
