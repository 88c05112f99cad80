package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hackgods/patient-ledger/internal/host"
	"github.com/hackgods/patient-ledger/internal/money"
)

type registerPatientArgs struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type scheduleAppointmentArgs struct {
	PatientID string        `json:"patientId"`
	Date      string        `json:"date"`
	Doctor    string        `json:"doctor"`
	Fee       *money.Amount `json:"fee"`
}

type patientIDArgs struct {
	PatientID string `json:"patientId"`
}

type withdrawArgs struct {
	Amount *money.Amount `json:"amount"`
}

// Methods returns the contract's entry points.
func Methods() host.Table {
	return host.NewTable(
		host.Method{Name: "registerPatient", Kind: host.KindCall, Handler: registerPatientMethod},
		host.Method{Name: "scheduleAppointment", Kind: host.KindCall, Handler: scheduleAppointmentMethod},
		host.Method{Name: "getPatient", Kind: host.KindView, Handler: getPatientMethod},
		host.Method{Name: "getAppointments", Kind: host.KindView, Handler: getAppointmentsMethod},
		host.Method{Name: "deposit", Kind: host.KindCall, Handler: depositMethod},
		host.Method{Name: "withdraw", Kind: host.KindCall, Handler: withdrawMethod},
	)
}

func registerPatientMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args registerPatientArgs
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return nil, RegisterPatient(ctx, env, args.Name, args.Age)
}

func scheduleAppointmentMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args scheduleAppointmentArgs
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Fee == nil {
		return nil, fmt.Errorf("%w: fee is required", host.ErrInvalidArguments)
	}
	return nil, ScheduleAppointment(ctx, env, args.PatientID, args.Date, args.Doctor, *args.Fee)
}

func getPatientMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args patientIDArgs
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return GetPatient(ctx, env, args.PatientID)
}

func getAppointmentsMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args patientIDArgs
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return GetAppointments(ctx, env, args.PatientID)
}

func depositMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args struct{}
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return nil, Deposit(ctx, env)
}

func withdrawMethod(ctx context.Context, env host.Env, raw json.RawMessage) (any, error) {
	var args withdrawArgs
	if err := host.DecodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required", host.ErrInvalidArguments)
	}
	return nil, Withdraw(ctx, env, *args.Amount)
}
