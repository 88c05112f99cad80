package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/patient-ledger/internal/host"
	"github.com/hackgods/patient-ledger/internal/ledger"
	"github.com/hackgods/patient-ledger/internal/money"
	redisclient "github.com/hackgods/patient-ledger/internal/redis"
)

const maxBodyBytes = 1 << 20

func invokeHandler(rt *host.Runtime, kind host.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method := chi.URLParam(r, "method")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}

		var req InvokeRequest
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		deposit := money.Zero()
		if req.Deposit != "" {
			deposit, err = money.Parse(req.Deposit)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_deposit", "deposit must be a non-negative decimal string")
				return
			}
		}

		result, err := rt.Invoke(r.Context(), host.Invocation{
			Method:  method,
			Kind:    kind,
			Caller:  req.Caller,
			Deposit: deposit,
			Args:    req.Args,
		})
		if err != nil {
			handleInvokeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, InvokeResponse{Result: result})
	}
}

func listMethodsHandler(rt *host.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods := rt.Methods()
		writeJSON(w, http.StatusOK, MethodsResponse{
			Contract:    rt.ContractID(),
			ViewMethods: methods.Names(host.KindView),
			CallMethods: methods.Names(host.KindCall),
		})
	}
}

func handleInvokeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrMethodNotFound):
		writeError(w, http.StatusNotFound, "method_not_found", err.Error())
	case errors.Is(err, host.ErrWrongKind):
		writeError(w, http.StatusMethodNotAllowed, "wrong_method_kind", err.Error())
	case errors.Is(err, host.ErrInvalidArguments),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAge):
		writeError(w, http.StatusBadRequest, "invalid_arguments", err.Error())
	case errors.Is(err, host.ErrDepositOnView):
		writeError(w, http.StatusBadRequest, "deposit_on_view", err.Error())
	case errors.Is(err, host.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, ledger.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_registered", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "contract_busy", "contract is executing another call, please retry shortly")
	case errors.Is(err, ledger.ErrIntegrity):
		log.Printf("integrity failure: %v", err)
		writeError(w, http.StatusInternalServerError, "integrity_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
