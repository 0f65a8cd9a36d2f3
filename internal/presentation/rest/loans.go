package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/auth"
)

// IdempotencyHeader carries the client key that makes payment retries safe.
const IdempotencyHeader = "Idempotency-Key"

// LoanHandler exposes the loan use cases as JSON over HTTP. Routes expect the
// auth middleware to have put the caller's claims in the request context.
type LoanHandler struct {
	uc     usecase.Set
	logger *slog.Logger
}

func NewLoanHandler(uc usecase.Set, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, logger: logger}
}

// RegisterRoutes attaches the API routes to r.
func (h *LoanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/loans", h.registerLoan).Methods(http.MethodPost)
	r.HandleFunc("/loans", h.listLoans).Methods(http.MethodGet)
	r.HandleFunc("/loans/{loanID}", h.getLoan).Methods(http.MethodGet)
	r.HandleFunc("/loans/{loanID}", h.deleteLoan).Methods(http.MethodDelete)
	r.HandleFunc("/loans/{loanID}/schedule", h.getSchedule).Methods(http.MethodGet)
	r.HandleFunc("/loans/{loanID}/payments", h.listPayments).Methods(http.MethodGet)
	r.HandleFunc("/loans/{loanID}/payments", h.recordPayment).Methods(http.MethodPost)
	r.HandleFunc("/loans/{loanID}/default", h.markDefaulted).Methods(http.MethodPost)
	r.HandleFunc("/portfolio/summary", h.portfolioSummary).Methods(http.MethodGet)
}

func (h *LoanHandler) registerLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterLoanRequest
	if !decode(w, r, &req) {
		return
	}
	req.OwnerID = owner(r)
	resp, err := h.uc.RegisterLoan.Execute(r.Context(), req)
	h.respond(w, r, http.StatusCreated, resp, err)
}

func (h *LoanHandler) listLoans(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.ListLoans.Execute(r.Context(), dto.ListLoansRequest{OwnerID: owner(r)})
	h.respond(w, r, http.StatusOK, resp, err)
}

// getLoan accepts ?include_schedule=true and ?as_of=YYYY-MM-DD.
func (h *LoanHandler) getLoan(w http.ResponseWriter, r *http.Request) {
	req := dto.GetLoanRequest{OwnerID: owner(r), LoanID: mux.Vars(r)["loanID"]}
	q := r.URL.Query()
	if v := q.Get("include_schedule"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_schedule must be a boolean")
			return
		}
		req.IncludeSchedule = b
	}
	if v := q.Get("as_of"); v != "" {
		d, err := dto.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.AsOf = d.Time
	}
	resp, err := h.uc.GetLoan.Execute(r.Context(), req)
	h.respond(w, r, http.StatusOK, resp, err)
}

func (h *LoanHandler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.DeleteLoan.Execute(r.Context(), dto.DeleteLoanRequest{
		OwnerID: owner(r),
		LoanID:  mux.Vars(r)["loanID"],
	})
	h.respond(w, r, http.StatusOK, resp, err)
}

func (h *LoanHandler) getSchedule(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetSchedule.Execute(r.Context(), dto.GetScheduleRequest{
		OwnerID: owner(r),
		LoanID:  mux.Vars(r)["loanID"],
	})
	h.respond(w, r, http.StatusOK, resp, err)
}

func (h *LoanHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.ListPayments.Execute(r.Context(), dto.ListPaymentsRequest{
		OwnerID: owner(r),
		LoanID:  mux.Vars(r)["loanID"],
	})
	h.respond(w, r, http.StatusOK, resp, err)
}

func (h *LoanHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	req.OwnerID = owner(r)
	req.LoanID = mux.Vars(r)["loanID"]
	if key := r.Header.Get(IdempotencyHeader); key != "" {
		req.IdempotencyKey = key
	}
	resp, err := h.uc.RecordPayment.Execute(r.Context(), req)
	code := http.StatusCreated
	if resp.Replayed {
		code = http.StatusOK
	}
	h.respond(w, r, code, resp, err)
}

func (h *LoanHandler) markDefaulted(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || (!claims.HasRole(auth.RoleServicer) && !claims.HasRole(auth.RoleAdmin)) {
		writeError(w, http.StatusForbidden, "marking a loan defaulted requires the servicer role")
		return
	}
	var req dto.MarkLoanDefaultedRequest
	if !decode(w, r, &req) {
		return
	}
	req.LoanID = mux.Vars(r)["loanID"]
	if req.OwnerID == "" {
		req.OwnerID = claims.OwnerID()
	}
	resp, err := h.uc.MarkLoanDefaulted.Execute(r.Context(), req)
	h.respond(w, r, http.StatusOK, resp, err)
}

func (h *LoanHandler) portfolioSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetPortfolioSummary.Execute(r.Context(), dto.GetPortfolioSummaryRequest{OwnerID: owner(r)})
	h.respond(w, r, http.StatusOK, resp, err)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func owner(r *http.Request) string {
	id, _ := auth.OwnerFromContext(r.Context())
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return false
	}
	return true
}

func (h *LoanHandler) respond(w http.ResponseWriter, r *http.Request, code int, resp any, err error) {
	if err != nil {
		status, msg := httpStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, code, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpStatus maps domain and application errors to HTTP status codes. The
// message of unclassified errors is not exposed.
func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidTerms), errors.Is(err, model.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrUnknownLoan):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, valueobject.ErrInvalidStatusTransition), errors.Is(err, usecase.ErrPaymentInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
