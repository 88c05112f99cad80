package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hackgods/patient-ledger/internal/money"
)

// Patients are stored as [identity, patient] pairs sorted by identity:
//
//	[["alice",{"name":"Alice","age":30,"balance":"60"}]]
//
// Appointments are stored as a plain array in creation order.

type patientRecord struct {
	Name    *string       `json:"name"`
	Age     *int          `json:"age"`
	Balance *money.Amount `json:"balance"`
}

type appointmentRecord struct {
	PatientID *string       `json:"patientId"`
	Date      *string       `json:"date"`
	Doctor    *string       `json:"doctor"`
	Fee       *money.Amount `json:"fee"`
}

func encodePatients(p *Patients) ([]byte, error) {
	entries := make([][2]any, 0, p.Len())
	for _, id := range p.IDs() {
		pt, _ := p.Get(id)
		entries = append(entries, [2]any{id, pt})
	}
	return json.Marshal(entries)
}

func decodePatients(data []byte) (*Patients, error) {
	var raw *[]json.RawMessage
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("expected array, got null")
	}

	out := NewPatients()
	for i, entry := range *raw {
		var pair []json.RawMessage
		if err := decodeStrict(entry, &pair); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("entry %d: expected [identity, patient], got %d elements", i, len(pair))
		}

		var id string
		if err := decodeStrict(pair[0], &id); err != nil {
			return nil, fmt.Errorf("entry %d identity: %w", i, err)
		}
		if id == "" {
			return nil, fmt.Errorf("entry %d: empty identity", i)
		}
		if out.Has(id) {
			return nil, fmt.Errorf("entry %d: duplicate identity %q", i, id)
		}

		var rec patientRecord
		if err := decodeStrict(pair[1], &rec); err != nil {
			return nil, fmt.Errorf("patient %q: %w", id, err)
		}
		if rec.Name == nil || rec.Age == nil || rec.Balance == nil {
			return nil, fmt.Errorf("patient %q: missing field", id)
		}
		if *rec.Age < 0 {
			return nil, fmt.Errorf("patient %q: negative age %d", id, *rec.Age)
		}

		out.Put(id, Patient{Name: *rec.Name, Age: *rec.Age, Balance: *rec.Balance})
	}
	return out, nil
}

func encodeAppointments(a Appointments) ([]byte, error) {
	if a == nil {
		a = Appointments{}
	}
	return json.Marshal(a)
}

func decodeAppointments(data []byte) (Appointments, error) {
	var raw *[]appointmentRecord
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("expected array, got null")
	}

	out := make(Appointments, 0, len(*raw))
	for i, rec := range *raw {
		if rec.PatientID == nil || rec.Date == nil || rec.Doctor == nil || rec.Fee == nil {
			return nil, fmt.Errorf("appointment %d: missing field", i)
		}
		out = append(out, Appointment{
			PatientID: *rec.PatientID,
			Date:      *rec.Date,
			Doctor:    *rec.Doctor,
			Fee:       *rec.Fee,
		})
	}
	return out, nil
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after value")
	}
	return nil
}
