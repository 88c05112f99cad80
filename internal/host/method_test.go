package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func noop(context.Context, Env, json.RawMessage) (any, error) { return nil, nil }

func TestNewTablePanics(t *testing.T) {
	tests := []struct {
		name    string
		methods []Method
	}{
		{name: "missing name", methods: []Method{{Kind: KindCall, Handler: noop}}},
		{name: "missing handler", methods: []Method{{Name: "a", Kind: KindCall}}},
		{name: "unknown kind", methods: []Method{{Name: "a", Kind: "mutate", Handler: noop}}},
		{name: "duplicate", methods: []Method{
			{Name: "a", Kind: KindCall, Handler: noop},
			{Name: "a", Kind: KindView, Handler: noop},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			NewTable(tt.methods...)
		})
	}
}

func TestTableLookupAndNames(t *testing.T) {
	table := NewTable(
		Method{Name: "b", Kind: KindCall, Handler: noop},
		Method{Name: "a", Kind: KindCall, Handler: noop},
		Method{Name: "v", Kind: KindView, Handler: noop},
	)

	if _, err := table.Lookup("missing"); !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("expected ErrMethodNotFound, got %v", err)
	}
	m, err := table.Lookup("v")
	if err != nil || m.Kind != KindView {
		t.Fatalf("Lookup(v) = %+v, %v", m, err)
	}

	calls := table.Names(KindCall)
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDecodeArgs(t *testing.T) {
	type args struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "empty", raw: "", want: ""},
		{name: "whitespace", raw: "  ", want: ""},
		{name: "object", raw: `{"name":"x"}`, want: "x"},
		{name: "unknown field", raw: `{"name":"x","other":1}`, wantErr: true},
		{name: "wrong type", raw: `{"name":1}`, wantErr: true},
		{name: "trailing data", raw: `{"name":"x"}{}`, wantErr: true},
		{name: "not json", raw: `name=x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got args
			err := DecodeArgs(json.RawMessage(tt.raw), &got)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArguments) {
					t.Fatalf("expected ErrInvalidArguments, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeArgs: %v", err)
			}
			if got.Name != tt.want {
				t.Fatalf("name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestLocalLockerExcludes(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- locker.WithLock(ctx, "k", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := locker.WithLock(waitCtx, "k", func(context.Context) error {
		t.Error("second holder entered while lock was held")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// other keys are independent
	if err := locker.WithLock(ctx, "other", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("other key: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first holder: %v", err)
	}

	if err := locker.WithLock(ctx, "k", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("relock after release: %v", err)
	}
}

func TestLocalLockerReturnsFnError(t *testing.T) {
	err := NewLocalLocker().WithLock(context.Background(), "k", func(context.Context) error { return errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
}
