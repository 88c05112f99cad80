package ledger

import (
	"context"
	"fmt"
)

const (
	PatientsKey     = "patients"
	AppointmentsKey = "appointments"
)

// Storage is the flat key-value namespace the host exposes to a call.
type Storage interface {
	ReadStorage(ctx context.Context, key string) ([]byte, bool, error)
	WriteStorage(ctx context.Context, key string, value []byte) error
}

// Store moves whole collections between memory and Storage. There is no
// per-record access: every load reads a full collection and every save
// overwrites it.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// LoadPatients returns an empty collection when the key has never been written.
func (s *Store) LoadPatients(ctx context.Context) (*Patients, error) {
	data, ok, err := s.storage.ReadStorage(ctx, PatientsKey)
	if err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}
	if !ok {
		return NewPatients(), nil
	}
	patients, err := decodePatients(data)
	if err != nil {
		return nil, &IntegrityError{Key: PatientsKey, Err: err}
	}
	return patients, nil
}

func (s *Store) SavePatients(ctx context.Context, patients *Patients) error {
	data, err := encodePatients(patients)
	if err != nil {
		return fmt.Errorf("encode patients: %w", err)
	}
	if err := s.storage.WriteStorage(ctx, PatientsKey, data); err != nil {
		return fmt.Errorf("write patients: %w", err)
	}
	return nil
}

// LoadAppointments returns an empty sequence when the key has never been written.
func (s *Store) LoadAppointments(ctx context.Context) (Appointments, error) {
	data, ok, err := s.storage.ReadStorage(ctx, AppointmentsKey)
	if err != nil {
		return nil, fmt.Errorf("read appointments: %w", err)
	}
	if !ok {
		return Appointments{}, nil
	}
	appointments, err := decodeAppointments(data)
	if err != nil {
		return nil, &IntegrityError{Key: AppointmentsKey, Err: err}
	}
	return appointments, nil
}

func (s *Store) SaveAppointments(ctx context.Context, appointments Appointments) error {
	data, err := encodeAppointments(appointments)
	if err != nil {
		return fmt.Errorf("encode appointments: %w", err)
	}
	if err := s.storage.WriteStorage(ctx, AppointmentsKey, data); err != nil {
		return fmt.Errorf("write appointments: %w", err)
	}
	return nil
}
