package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/patient-ledger/internal/money"
	"github.com/hackgods/patient-ledger/internal/storage"
)

type TransferStatus string

const (
	TransferPending TransferStatus = "pending"
	TransferSettled TransferStatus = "settled"
	TransferFailed  TransferStatus = "failed"
)

// Transfer is an outbound value movement requested by a call.
type Transfer struct {
	ID        uuid.UUID      `json:"id"`
	To        string         `json:"to"`
	Amount    money.Amount   `json:"amount"`
	Status    TransferStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Outbox returns the queued transfers, oldest first.
func (r *Runtime) Outbox(ctx context.Context) ([]Transfer, error) {
	data, ok, err := r.backend.Get(ctx, r.outboxKey())
	if err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}
	if !ok {
		return []Transfer{}, nil
	}
	var transfers []Transfer
	if err := json.Unmarshal(data, &transfers); err != nil {
		return nil, fmt.Errorf("decode outbox: %w", err)
	}
	return transfers, nil
}

// Payout delivers a transfer outside the ledger.
type Payout interface {
	Send(ctx context.Context, t Transfer) error
}

// PayoutFunc adapts a function to Payout.
type PayoutFunc func(ctx context.Context, t Transfer) error

func (f PayoutFunc) Send(ctx context.Context, t Transfer) error { return f(ctx, t) }

// LogPayout only records the transfer in the process log.
type LogPayout struct{}

func (LogPayout) Send(_ context.Context, t Transfer) error {
	log.Printf("payout id=%s to=%s amount=%s", t.ID, t.To, t.Amount)
	return nil
}

// SettleReport summarizes one settlement run.
type SettleReport struct {
	Settled int
	Failed  int
	Pending int
}

// Settler drains pending transfers from a runtime's outbox.
type Settler struct {
	runtime *Runtime
	payout  Payout
	batch   int
}

func NewSettler(runtime *Runtime, payout Payout, batch int) *Settler {
	return &Settler{
		runtime: runtime,
		payout:  payout,
		batch:   batch,
	}
}

// SettlePending sends up to batch pending transfers. Settled transfers leave
// the outbox; failed ones stay with status failed. A failed payout is not
// credited back to the patient.
func (s *Settler) SettlePending(ctx context.Context) (SettleReport, error) {
	var report SettleReport
	r := s.runtime

	err := r.locker.WithLock(ctx, r.lockKey(), func(lockCtx context.Context) error {
		outbox, err := r.Outbox(lockCtx)
		if err != nil {
			return err
		}

		kept := make([]Transfer, 0, len(outbox))
		sent := 0
		for _, t := range outbox {
			if t.Status != TransferPending || sent >= s.batch {
				if t.Status == TransferPending {
					report.Pending++
				}
				kept = append(kept, t)
				continue
			}
			sent++

			now := r.now().UTC()
			if err := s.payout.Send(lockCtx, t); err != nil {
				log.Printf("transfer failed id=%s to=%s amount=%s err=%v (balance stays debited)", t.ID, t.To, t.Amount, err)
				t.Status = TransferFailed
				t.Error = err.Error()
				t.UpdatedAt = &now
				kept = append(kept, t)
				report.Failed++
				continue
			}
			report.Settled++
		}

		if sent == 0 {
			return nil
		}

		data, err := json.Marshal(kept)
		if err != nil {
			return fmt.Errorf("encode outbox: %w", err)
		}
		return r.backend.Apply(lockCtx, []storage.Write{{Key: r.outboxKey(), Value: data}})
	})
	if err != nil {
		return SettleReport{}, err
	}
	return report, nil
}
