package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// RequestIDHeader is the metadata key carrying a caller supplied request id.
const RequestIDHeader = "x-request-id"

// UnaryInterceptor tags each call with a request id, logs it, and turns panics
// into Internal errors.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, requestID)
		if s, ok := req.(*structpb.Struct); ok {
			if uploaderID := stringField(s, "uploader_id"); uploaderID != "" {
				ctx = common.WithUploaderID(ctx, uploaderID)
			}
		}

		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc.panic", "method", info.FullMethod, "request_id", requestID, "panic", r, "stack", string(debug.Stack()))
				err = common.InternalError("internal error")
			}
			logger.Info("grpc.request",
				"method", info.FullMethod,
				"request_id", requestID,
				"uploader_id", common.UploaderIDFromContext(ctx),
				"code", status.Code(err).String(),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
		}()
		return handler(ctx, req)
	}
}

// NewGRPCServer builds a server with the receipt service, health checks registered.
func NewGRPCServer(svc ReceiptProcessingServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryInterceptor(logger))}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterReceiptProcessingServer(gs, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return gs, hs
}
