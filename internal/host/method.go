package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hackgods/patient-ledger/internal/money"
)

var (
	ErrMethodNotFound   = errors.New("method not found")
	ErrWrongKind        = errors.New("method kind does not match endpoint")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrReadOnly         = errors.New("view methods cannot modify state")
	ErrDepositOnView    = errors.New("value cannot be attached to a view")
	ErrUnauthenticated  = errors.New("caller identity required")
)

// Kind separates read-only entry points from state-mutating ones.
type Kind string

const (
	KindView Kind = "view"
	KindCall Kind = "call"
)

// Env is the host surface handed to a method for the length of one invocation.
type Env interface {
	CallerIdentity() string
	AttachedValue() money.Amount
	ReadStorage(ctx context.Context, key string) ([]byte, bool, error)
	WriteStorage(ctx context.Context, key string, value []byte) error
	Transfer(ctx context.Context, to string, amount money.Amount) error
}

// Handler runs one entry point. The returned value is encoded as JSON.
type Handler func(ctx context.Context, env Env, args json.RawMessage) (any, error)

type Method struct {
	Name    string
	Kind    Kind
	Handler Handler
}

// Table maps entry point names to methods.
type Table map[string]Method

// NewTable panics on duplicate or incomplete registrations since those are
// programming errors caught at startup.
func NewTable(methods ...Method) Table {
	t := make(Table, len(methods))
	for _, m := range methods {
		if m.Name == "" || m.Handler == nil {
			panic("host: method needs a name and a handler")
		}
		if m.Kind != KindView && m.Kind != KindCall {
			panic(fmt.Sprintf("host: method %s has unknown kind %q", m.Name, m.Kind))
		}
		if _, dup := t[m.Name]; dup {
			panic(fmt.Sprintf("host: method %s registered twice", m.Name))
		}
		t[m.Name] = m
	}
	return t
}

func (t Table) Lookup(name string) (Method, error) {
	m, ok := t[name]
	if !ok {
		return Method{}, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}
	return m, nil
}

// Names lists methods of the given kind in alphabetical order.
func (t Table) Names(kind Kind) []string {
	var names []string
	for name, m := range t {
		if m.Kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DecodeArgs decodes a method's argument object. Missing args decode as {};
// unknown fields are rejected.
func DecodeArgs(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after arguments", ErrInvalidArguments)
	}
	return nil
}
