package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/hackgods/patient-ledger/internal/money"
)

// Env is what a single call sees of the host.
type Env interface {
	Storage
	CallerIdentity() string
	AttachedValue() money.Amount
	Transfer(ctx context.Context, to string, amount money.Amount) error
}

// RegisterPatient creates a record for the caller. An identity that is already
// registered is left untouched and nothing is written.
func RegisterPatient(ctx context.Context, env Env, name string, age int) error {
	if age < 0 {
		return ErrInvalidAge
	}

	store := NewStore(env)
	patients, err := store.LoadPatients(ctx)
	if err != nil {
		return err
	}

	id := env.CallerIdentity()
	if patients.Has(id) {
		return nil
	}

	patients.Put(id, Patient{Name: name, Age: age, Balance: money.Zero()})
	return store.SavePatients(ctx, patients)
}

// ScheduleAppointment charges fee to the patient and records the appointment.
// Both collections are saved together or, on a failed check, not at all.
func ScheduleAppointment(ctx context.Context, env Env, patientID, date, doctor string, fee money.Amount) error {
	store := NewStore(env)
	patients, err := store.LoadPatients(ctx)
	if err != nil {
		return err
	}
	appointments, err := store.LoadAppointments(ctx)
	if err != nil {
		return err
	}

	patient, ok := patients.Get(patientID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, patientID)
	}
	remaining, ok := patient.Balance.Sub(fee)
	if !ok {
		return fmt.Errorf("%w: balance %s is below fee %s", ErrInsufficientFunds, patient.Balance, fee)
	}

	patient.Balance = remaining
	patients.Put(patientID, patient)
	appointments = append(appointments, Appointment{
		PatientID: patientID,
		Date:      date,
		Doctor:    doctor,
		Fee:       fee,
	})

	if err := store.SavePatients(ctx, patients); err != nil {
		return err
	}
	return store.SaveAppointments(ctx, appointments)
}

// GetPatient returns nil when patientID is not registered.
func GetPatient(ctx context.Context, env Env, patientID string) (*Patient, error) {
	patients, err := NewStore(env).LoadPatients(ctx)
	if err != nil {
		return nil, err
	}
	patient, ok := patients.Get(patientID)
	if !ok {
		return nil, nil
	}
	return &patient, nil
}

func GetAppointments(ctx context.Context, env Env, patientID string) ([]Appointment, error) {
	appointments, err := NewStore(env).LoadAppointments(ctx)
	if err != nil {
		return nil, err
	}
	return appointments.ForPatient(patientID), nil
}

// Deposit credits the attached value to the caller. A caller that is not a
// registered patient is ignored and the value stays with the contract.
func Deposit(ctx context.Context, env Env) error {
	store := NewStore(env)
	patients, err := store.LoadPatients(ctx)
	if err != nil {
		return err
	}

	id := env.CallerIdentity()
	amount := env.AttachedValue()
	patient, ok := patients.Get(id)
	if !ok {
		log.Printf("deposit dropped: caller=%s is not a registered patient amount=%s", id, amount)
		return nil
	}

	patient.Balance = patient.Balance.Add(amount)
	patients.Put(id, patient)
	return store.SavePatients(ctx, patients)
}

// Withdraw debits the caller and then asks the host to send amount to them.
// The debit is not reversed if the host later fails to deliver the transfer.
func Withdraw(ctx context.Context, env Env, amount money.Amount) error {
	store := NewStore(env)
	patients, err := store.LoadPatients(ctx)
	if err != nil {
		return err
	}

	id := env.CallerIdentity()
	patient, ok := patients.Get(id)
	if !ok {
		log.Printf("withdraw ignored: caller=%s is not a registered patient amount=%s", id, amount)
		return nil
	}
	remaining, ok := patient.Balance.Sub(amount)
	if !ok {
		return fmt.Errorf("%w: balance %s is below requested %s", ErrInsufficientFunds, patient.Balance, amount)
	}

	patient.Balance = remaining
	patients.Put(id, patient)
	if err := store.SavePatients(ctx, patients); err != nil {
		return err
	}

	if err := env.Transfer(ctx, id, amount); err != nil {
		return fmt.Errorf("request transfer: %w", err)
	}
	return nil
}
