package host

import (
	"context"
	"errors"
	"testing"

	"github.com/hackgods/patient-ledger/internal/money"
)

func queuePayouts(t *testing.T, rt *Runtime, to string, amounts ...uint64) {
	t.Helper()
	for _, a := range amounts {
		if _, err := rt.Invoke(context.Background(), Invocation{Method: "payout", Caller: to, Deposit: money.FromUint64(a)}); err != nil {
			t.Fatalf("payout: %v", err)
		}
	}
}

func TestSettlePendingSendsAndRemoves(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	ctx := context.Background()
	queuePayouts(t, rt, "alice", 1, 2, 3)

	var sent []string
	payout := PayoutFunc(func(_ context.Context, tr Transfer) error {
		sent = append(sent, tr.Amount.String())
		return nil
	})

	report, err := NewSettler(rt, payout, 10).SettlePending(ctx)
	if err != nil {
		t.Fatalf("SettlePending: %v", err)
	}
	if report.Settled != 3 || report.Failed != 0 || report.Pending != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(sent) != 3 || sent[0] != "1" || sent[2] != "3" {
		t.Fatalf("sent = %v", sent)
	}

	outbox, _ := rt.Outbox(ctx)
	if len(outbox) != 0 {
		t.Fatalf("outbox still holds %d transfers", len(outbox))
	}
}

func TestSettlePendingRespectsBatch(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	ctx := context.Background()
	queuePayouts(t, rt, "alice", 1, 2, 3)

	settler := NewSettler(rt, LogPayout{}, 2)
	report, err := settler.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Settled != 2 || report.Pending != 1 {
		t.Fatalf("report = %+v", report)
	}

	outbox, _ := rt.Outbox(ctx)
	if len(outbox) != 1 || outbox[0].Amount.String() != "3" {
		t.Fatalf("outbox = %+v", outbox)
	}

	report, err = settler.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Settled != 1 || report.Pending != 0 {
		t.Fatalf("second report = %+v", report)
	}
}

func TestSettlePendingMarksFailures(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	ctx := context.Background()
	queuePayouts(t, rt, "alice", 1, 2)

	payout := PayoutFunc(func(_ context.Context, tr Transfer) error {
		if tr.Amount.String() == "2" {
			return errors.New("recipient unreachable")
		}
		return nil
	})

	settler := NewSettler(rt, payout, 10)
	report, err := settler.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Settled != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}

	outbox, _ := rt.Outbox(ctx)
	if len(outbox) != 1 {
		t.Fatalf("outbox = %+v", outbox)
	}
	failed := outbox[0]
	if failed.Status != TransferFailed || failed.Error != "recipient unreachable" || failed.UpdatedAt == nil {
		t.Fatalf("failed transfer = %+v", failed)
	}

	// failed transfers are not retried
	report, err = settler.SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report != (SettleReport{}) {
		t.Fatalf("retry report = %+v", report)
	}
}

func TestSettlePendingOnEmptyOutboxWritesNothing(t *testing.T) {
	rt, backend := newCounterRuntime(t)
	ctx := context.Background()

	report, err := NewSettler(rt, LogPayout{}, 10).SettlePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report != (SettleReport{}) {
		t.Fatalf("report = %+v", report)
	}
	if _, ok, _ := backend.Get(ctx, "outbox/counter"); ok {
		t.Fatalf("empty settlement wrote the outbox")
	}
}
