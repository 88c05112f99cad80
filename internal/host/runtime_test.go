package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hackgods/patient-ledger/internal/money"
	"github.com/hackgods/patient-ledger/internal/storage"
)

var errBoom = errors.New("boom")

// counterMethods is a tiny contract: "incr" bumps a counter and can be told
// to fail after writing, "payout" queues a transfer, "read" returns the
// counter and "sneak" is a view that tries to write.
func counterMethods() Table {
	return NewTable(
		Method{Name: "incr", Kind: KindCall, Handler: func(ctx context.Context, env Env, raw json.RawMessage) (any, error) {
			var args struct {
				Fail bool `json:"fail"`
			}
			if err := DecodeArgs(raw, &args); err != nil {
				return nil, err
			}
			n := readCounter(ctx, env)
			if err := env.WriteStorage(ctx, "counter", []byte{byte(n + 1)}); err != nil {
				return nil, err
			}
			if err := env.WriteStorage(ctx, "caller", []byte(env.CallerIdentity())); err != nil {
				return nil, err
			}
			if args.Fail {
				return nil, errBoom
			}
			// reads see the call's own writes
			return readCounter(ctx, env), nil
		}},
		Method{Name: "payout", Kind: KindCall, Handler: func(ctx context.Context, env Env, _ json.RawMessage) (any, error) {
			if err := env.Transfer(ctx, env.CallerIdentity(), env.AttachedValue()); err != nil {
				return nil, err
			}
			return nil, nil
		}},
		Method{Name: "read", Kind: KindView, Handler: func(ctx context.Context, env Env, _ json.RawMessage) (any, error) {
			return readCounter(ctx, env), nil
		}},
		Method{Name: "sneak", Kind: KindView, Handler: func(ctx context.Context, env Env, _ json.RawMessage) (any, error) {
			return nil, env.WriteStorage(ctx, "counter", []byte{99})
		}},
		Method{Name: "sneakTransfer", Kind: KindView, Handler: func(ctx context.Context, env Env, _ json.RawMessage) (any, error) {
			return nil, env.Transfer(ctx, "x", money.FromUint64(1))
		}},
	)
}

func readCounter(ctx context.Context, env Env) int {
	v, ok, err := env.ReadStorage(ctx, "counter")
	if err != nil || !ok || len(v) == 0 {
		return 0
	}
	return int(v[0])
}

func newCounterRuntime(t *testing.T) (*Runtime, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	return NewRuntime("counter", backend, NewLocalLocker(), counterMethods()), backend
}

func TestInvokeCallCommits(t *testing.T) {
	rt, backend := newCounterRuntime(t)
	ctx := context.Background()

	out, err := rt.Invoke(ctx, Invocation{Method: "incr", Kind: KindCall, Caller: "alice"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if string(out) != "1" {
		t.Fatalf("result = %s, want 1", out)
	}

	v, ok, err := backend.Get(ctx, "state/counter/counter")
	if err != nil || !ok || v[0] != 1 {
		t.Fatalf("stored counter = %v ok=%v err=%v", v, ok, err)
	}

	out, err = rt.Invoke(ctx, Invocation{Method: "read", Kind: KindView})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if string(out) != "1" {
		t.Fatalf("view result = %s, want 1", out)
	}
}

func TestFailedCallWritesNothing(t *testing.T) {
	rt, backend := newCounterRuntime(t)
	ctx := context.Background()

	_, err := rt.Invoke(ctx, Invocation{Method: "incr", Caller: "alice", Args: json.RawMessage(`{"fail":true}`)})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	for _, key := range []string{"state/counter/counter", "state/counter/caller"} {
		if _, ok, _ := backend.Get(ctx, key); ok {
			t.Fatalf("%s written by failed call", key)
		}
	}
}

func TestInvokeRejections(t *testing.T) {
	rt, _ := newCounterRuntime(t)

	tests := []struct {
		name    string
		inv     Invocation
		wantErr error
	}{
		{name: "unknown method", inv: Invocation{Method: "nope", Caller: "a"}, wantErr: ErrMethodNotFound},
		{name: "call through view endpoint", inv: Invocation{Method: "incr", Kind: KindView, Caller: "a"}, wantErr: ErrWrongKind},
		{name: "view through call endpoint", inv: Invocation{Method: "read", Kind: KindCall, Caller: "a"}, wantErr: ErrWrongKind},
		{name: "call without caller", inv: Invocation{Method: "incr", Kind: KindCall}, wantErr: ErrUnauthenticated},
		{name: "deposit on view", inv: Invocation{Method: "read", Kind: KindView, Deposit: money.FromUint64(1)}, wantErr: ErrDepositOnView},
		{name: "view writes", inv: Invocation{Method: "sneak", Kind: KindView}, wantErr: ErrReadOnly},
		{name: "view transfers", inv: Invocation{Method: "sneakTransfer", Kind: KindView}, wantErr: ErrReadOnly},
		{name: "bad args", inv: Invocation{Method: "incr", Caller: "a", Args: json.RawMessage(`{"fail":"yes"}`)}, wantErr: ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Invoke(context.Background(), tt.inv)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCallQueuesTransferInOutbox(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	ctx := context.Background()

	for _, amount := range []uint64{5, 7} {
		if _, err := rt.Invoke(ctx, Invocation{Method: "payout", Caller: "alice", Deposit: money.FromUint64(amount)}); err != nil {
			t.Fatalf("payout: %v", err)
		}
	}

	outbox, err := rt.Outbox(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(outbox) != 2 {
		t.Fatalf("outbox has %d transfers, want 2", len(outbox))
	}
	if outbox[0].Amount.String() != "5" || outbox[1].Amount.String() != "7" {
		t.Fatalf("outbox order: %+v", outbox)
	}
	if outbox[0].ID == outbox[1].ID {
		t.Fatalf("transfer ids collide")
	}
	for _, tr := range outbox {
		if tr.To != "alice" || tr.Status != TransferPending || tr.CreatedAt.IsZero() {
			t.Fatalf("transfer = %+v", tr)
		}
	}
}

func TestEmptyOutbox(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	outbox, err := rt.Outbox(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if outbox == nil || len(outbox) != 0 {
		t.Fatalf("expected empty outbox, got %#v", outbox)
	}
}

type failingBackend struct {
	*storage.Memory
}

func (failingBackend) Apply(context.Context, []storage.Write) error { return errBoom }

func TestCommitFailureSurfaces(t *testing.T) {
	backend := failingBackend{Memory: storage.NewMemory()}
	rt := NewRuntime("counter", backend, NewLocalLocker(), counterMethods())

	_, err := rt.Invoke(context.Background(), Invocation{Method: "incr", Caller: "alice"})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestConcurrentCallsSerialize(t *testing.T) {
	rt, _ := newCounterRuntime(t)
	ctx := context.Background()

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := rt.Invoke(ctx, Invocation{Method: "incr", Caller: "alice"})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Invoke: %v", err)
		}
	}

	out, err := rt.Invoke(ctx, Invocation{Method: "read"})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "50" {
		t.Fatalf("counter = %s, want 50", out)
	}
}
