package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/receipt-ledger/internal/app"
	"github.com/joseph-ayodele/receipt-ledger/internal/async"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("receiptsd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := server.PingDB(ctx, a.DB, logger, cfg.Database.DialTimeout); err != nil {
		return err
	}

	queue := async.NewProcessorQueue(a.Pipeline, a.Images, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultFunc(logResult(logger)),
	)

	svc := server.NewReceiptService(a.Images, a.Pipeline, logger,
		server.WithQueue(queue),
		server.WithIngestor(a.Ingestor),
		server.WithExporter(a.Exporter),
	)
	gs, hs := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}
	logger.Info("grpc.serving", "addr", lis.Addr().String())

	serveErr := make(chan error, 1)
	go func() { serveErr <- gs.Serve(lis) }()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			queue.Shutdown(context.Background())
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	gs.GracefulStop()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
	return nil
}

func logResult(logger *slog.Logger) async.ResultFunc {
	return func(job async.Job, report entity.ProcessingReport, err error) {
		if err != nil {
			logger.Error("queue.job_failed", "image_id", job.ImageID, "request_id", job.TraceID, "error", err)
			return
		}
		logger.Info("queue.job_done",
			"image_id", job.ImageID,
			"request_id", job.TraceID,
			"success", report.Success,
			"processed", report.ProcessedCount,
			"skipped", report.SkippedCount,
			"failure_kind", report.FailureKind,
			"queued_for", time.Since(job.SubmittedAt).Round(time.Millisecond),
		)
	}
}
