package grpc

// proto.go hand-writes the service descriptor for loanbook.v1.LoanbookService.
// Messages travel as JSON (see json_codec.go), so the application DTOs double
// as the wire types.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fintrack/loanbook/internal/application/dto"
)

const serviceName = "loanbook.v1.LoanbookService"

// LoanbookServiceServer is the server API for LoanbookService.
type LoanbookServiceServer interface {
	RegisterLoan(context.Context, *dto.RegisterLoanRequest) (*dto.LoanResponse, error)
	GetLoan(context.Context, *dto.GetLoanRequest) (*dto.LoanResponse, error)
	ListLoans(context.Context, *dto.ListLoansRequest) (*dto.ListLoansResponse, error)
	RecordPayment(context.Context, *dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error)
	ListPayments(context.Context, *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error)
	GetSchedule(context.Context, *dto.GetScheduleRequest) (*dto.ScheduleResponse, error)
	GetPortfolioSummary(context.Context, *dto.GetPortfolioSummaryRequest) (*dto.PortfolioSummaryResponse, error)
	MarkLoanDefaulted(context.Context, *dto.MarkLoanDefaultedRequest) (*dto.LoanResponse, error)
	DeleteLoan(context.Context, *dto.DeleteLoanRequest) (*dto.DeleteLoanResponse, error)
}

// RegisterLoanbookServiceServer registers srv with the gRPC server.
func RegisterLoanbookServiceServer(s grpclib.ServiceRegistrar, srv LoanbookServiceServer) {
	s.RegisterService(&loanbookServiceDesc, srv)
}

// FullMethod returns the fully qualified gRPC method name.
func FullMethod(method string) string { return "/" + serviceName + "/" + method }

var loanbookServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LoanbookServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "RegisterLoan", Handler: unary("RegisterLoan", LoanbookServiceServer.RegisterLoan)},
		{MethodName: "GetLoan", Handler: unary("GetLoan", LoanbookServiceServer.GetLoan)},
		{MethodName: "ListLoans", Handler: unary("ListLoans", LoanbookServiceServer.ListLoans)},
		{MethodName: "RecordPayment", Handler: unary("RecordPayment", LoanbookServiceServer.RecordPayment)},
		{MethodName: "ListPayments", Handler: unary("ListPayments", LoanbookServiceServer.ListPayments)},
		{MethodName: "GetSchedule", Handler: unary("GetSchedule", LoanbookServiceServer.GetSchedule)},
		{MethodName: "GetPortfolioSummary", Handler: unary("GetPortfolioSummary", LoanbookServiceServer.GetPortfolioSummary)},
		{MethodName: "MarkLoanDefaulted", Handler: unary("MarkLoanDefaulted", LoanbookServiceServer.MarkLoanDefaulted)},
		{MethodName: "DeleteLoan", Handler: unary("DeleteLoan", LoanbookServiceServer.DeleteLoan)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "loanbook/v1/loanbook.proto",
}

// unary adapts a typed service method to grpc.MethodHandler, decoding the
// request and running it through the interceptor chain.
func unary[Req, Resp any](
	method string,
	call func(LoanbookServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodHandler {
	fullMethod := FullMethod(method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode %s request: %v", method, err)
		}
		if interceptor == nil {
			return call(srv.(LoanbookServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LoanbookServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
