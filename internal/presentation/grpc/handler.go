package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/auth"
)

// LoanbookHandler implements LoanbookServiceServer on top of the use cases.
// The owner of every request is the authenticated token subject; any owner
// supplied in the message body is ignored except by servicer operations.
type LoanbookHandler struct {
	uc     usecase.Set
	logger *slog.Logger
}

// NewLoanbookHandler creates a handler over the given use cases.
func NewLoanbookHandler(uc usecase.Set, logger *slog.Logger) *LoanbookHandler {
	return &LoanbookHandler{uc: uc, logger: logger}
}

var _ LoanbookServiceServer = (*LoanbookHandler)(nil)

func (h *LoanbookHandler) RegisterLoan(ctx context.Context, req *dto.RegisterLoanRequest) (*dto.LoanResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	r := *req
	r.OwnerID = owner
	resp, err := h.uc.RegisterLoan.Execute(ctx, r)
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) GetLoan(ctx context.Context, req *dto.GetLoanRequest) (*dto.LoanResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	r := *req
	r.OwnerID = owner
	resp, err := h.uc.GetLoan.Execute(ctx, r)
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) ListLoans(ctx context.Context, _ *dto.ListLoansRequest) (*dto.ListLoansResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.ListLoans.Execute(ctx, dto.ListLoansRequest{OwnerID: owner})
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	r := *req
	r.OwnerID = owner
	resp, err := h.uc.RecordPayment.Execute(ctx, r)
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) ListPayments(ctx context.Context, req *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.ListPayments.Execute(ctx, dto.ListPaymentsRequest{OwnerID: owner, LoanID: req.LoanID})
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) GetSchedule(ctx context.Context, req *dto.GetScheduleRequest) (*dto.ScheduleResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetSchedule.Execute(ctx, dto.GetScheduleRequest{OwnerID: owner, LoanID: req.LoanID})
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) GetPortfolioSummary(
	ctx context.Context,
	_ *dto.GetPortfolioSummaryRequest,
) (*dto.PortfolioSummaryResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetPortfolioSummary.Execute(ctx, dto.GetPortfolioSummaryRequest{OwnerID: owner})
	return respond(ctx, h.logger, resp, err)
}

// MarkLoanDefaulted is reserved for servicers and admins, who name the
// borrower in owner_id.
func (h *LoanbookHandler) MarkLoanDefaulted(ctx context.Context, req *dto.MarkLoanDefaultedRequest) (*dto.LoanResponse, error) {
	r, err := defaultRequestFor(ctx, *req)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.MarkLoanDefaulted.Execute(ctx, r)
	return respond(ctx, h.logger, resp, err)
}

func (h *LoanbookHandler) DeleteLoan(ctx context.Context, req *dto.DeleteLoanRequest) (*dto.DeleteLoanResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.DeleteLoan.Execute(ctx, dto.DeleteLoanRequest{OwnerID: owner, LoanID: req.LoanID})
	return respond(ctx, h.logger, resp, err)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func ownerFrom(ctx context.Context) (string, error) {
	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing caller identity")
	}
	return owner, nil
}

func defaultRequestFor(ctx context.Context, req dto.MarkLoanDefaultedRequest) (dto.MarkLoanDefaultedRequest, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || claims.OwnerID() == "" {
		return req, status.Error(codes.Unauthenticated, "missing caller identity")
	}
	if !claims.HasRole(auth.RoleServicer) && !claims.HasRole(auth.RoleAdmin) {
		return req, status.Error(codes.PermissionDenied, "marking a loan defaulted requires the servicer role")
	}
	if req.OwnerID == "" {
		req.OwnerID = claims.OwnerID()
	}
	return req, nil
}

func respond[T any](ctx context.Context, logger *slog.Logger, resp T, err error) (*T, error) {
	if err != nil {
		return nil, toStatus(ctx, logger, err)
	}
	return &resp, nil
}

// toStatus maps domain and application errors onto gRPC status codes.
// Unclassified errors are logged and hidden behind codes.Internal.
func toStatus(ctx context.Context, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidTerms), errors.Is(err, model.ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrUnknownLoan):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, valueobject.ErrInvalidStatusTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, usecase.ErrPaymentInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
