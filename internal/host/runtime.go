package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/patient-ledger/internal/money"
	"github.com/hackgods/patient-ledger/internal/storage"
)

// Invocation is one request to run an entry point.
type Invocation struct {
	Method string
	// Kind, when set, must match the method's kind.
	Kind    Kind
	Caller  string
	Deposit money.Amount
	Args    json.RawMessage
}

// Runtime executes entry points of a single contract against a backend.
// Calls run one at a time under the contract lock and commit their writes in
// one batch; views read committed state without locking.
type Runtime struct {
	contract string
	backend  storage.Backend
	locker   Locker
	methods  Table
	now      func() time.Time
}

func NewRuntime(contractID string, backend storage.Backend, locker Locker, methods Table) *Runtime {
	return &Runtime{
		contract: contractID,
		backend:  backend,
		locker:   locker,
		methods:  methods,
		now:      time.Now,
	}
}

func (r *Runtime) ContractID() string { return r.contract }

func (r *Runtime) Methods() Table { return r.methods }

func (r *Runtime) stateKey(key string) string {
	return fmt.Sprintf("state/%s/%s", r.contract, key)
}

func (r *Runtime) outboxKey() string {
	return fmt.Sprintf("outbox/%s", r.contract)
}

func (r *Runtime) lockKey() string {
	return fmt.Sprintf("contract:%s", r.contract)
}

// Invoke runs the named method and returns its JSON-encoded result.
func (r *Runtime) Invoke(ctx context.Context, inv Invocation) (json.RawMessage, error) {
	m, err := r.methods.Lookup(inv.Method)
	if err != nil {
		return nil, err
	}
	if inv.Kind != "" && inv.Kind != m.Kind {
		return nil, fmt.Errorf("%w: %s is a %s method", ErrWrongKind, m.Name, m.Kind)
	}

	if m.Kind == KindView {
		if !inv.Deposit.IsZero() {
			return nil, ErrDepositOnView
		}
		env := r.newEnv(inv, true)
		return r.run(ctx, m, env, inv.Args)
	}

	if inv.Caller == "" {
		return nil, ErrUnauthenticated
	}

	var result json.RawMessage
	err = r.locker.WithLock(ctx, r.lockKey(), func(lockCtx context.Context) error {
		env := r.newEnv(inv, false)
		out, err := r.run(lockCtx, m, env, inv.Args)
		if err != nil {
			return err
		}
		if err := r.commit(lockCtx, env); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runtime) run(ctx context.Context, m Method, env *callEnv, args json.RawMessage) (json.RawMessage, error) {
	out, err := m.Handler(ctx, env, args)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", m.Name, err)
	}
	return data, nil
}

// commit writes the call's buffered state and queued transfers together.
func (r *Runtime) commit(ctx context.Context, env *callEnv) error {
	if len(env.order) == 0 && len(env.transfers) == 0 {
		return nil
	}

	writes := make([]storage.Write, 0, len(env.order)+1)
	for _, key := range env.order {
		writes = append(writes, storage.Write{Key: r.stateKey(key), Value: env.writes[key]})
	}

	if len(env.transfers) > 0 {
		outbox, err := r.Outbox(ctx)
		if err != nil {
			return err
		}
		outbox = append(outbox, env.transfers...)
		data, err := json.Marshal(outbox)
		if err != nil {
			return fmt.Errorf("encode outbox: %w", err)
		}
		writes = append(writes, storage.Write{Key: r.outboxKey(), Value: data})
	}

	return r.backend.Apply(ctx, writes)
}

func (r *Runtime) newEnv(inv Invocation, readOnly bool) *callEnv {
	return &callEnv{
		runtime:  r,
		caller:   inv.Caller,
		deposit:  inv.Deposit,
		readOnly: readOnly,
		writes:   make(map[string][]byte),
	}
}

// callEnv buffers a call's writes so a failed call leaves no trace.
type callEnv struct {
	runtime   *Runtime
	caller    string
	deposit   money.Amount
	readOnly  bool
	writes    map[string][]byte
	order     []string
	transfers []Transfer
}

func (e *callEnv) CallerIdentity() string { return e.caller }

func (e *callEnv) AttachedValue() money.Amount { return e.deposit }

func (e *callEnv) ReadStorage(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := e.writes[key]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}
	return e.runtime.backend.Get(ctx, e.runtime.stateKey(key))
}

func (e *callEnv) WriteStorage(_ context.Context, key string, value []byte) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if _, seen := e.writes[key]; !seen {
		e.order = append(e.order, key)
	}
	v := make([]byte, len(value))
	copy(v, value)
	e.writes[key] = v
	return nil
}

func (e *callEnv) Transfer(_ context.Context, to string, amount money.Amount) error {
	if e.readOnly {
		return ErrReadOnly
	}
	e.transfers = append(e.transfers, Transfer{
		ID:        uuid.New(),
		To:        to,
		Amount:    amount,
		Status:    TransferPending,
		CreatedAt: e.runtime.now().UTC(),
	})
	return nil
}
