// Command paintd starts the reference paint server: gRPC on -addr and websocket on -ws-addr.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/paintstream/internal/migrate"
	"github.com/and161185/paintstream/internal/repository"
	"github.com/and161185/paintstream/internal/repository/memory"
	"github.com/and161185/paintstream/internal/repository/postgres"
	grpcserver "github.com/and161185/paintstream/internal/server/grpc"
	"github.com/and161185/paintstream/internal/server/ws"
	"github.com/and161185/paintstream/internal/service"
	"github.com/and161185/paintstream/internal/wire"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, opens storage, and serves until SIGINT/SIGTERM.
func main() {
	// Flags
	addr := flag.String("addr", ":8443", "gRPC listen address")
	wsAddr := flag.String("ws-addr", "", "websocket listen address (empty disables)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (empty keeps rooms in memory)")
	maxBatch := flag.Int("max-batch", 1000, "max actions per paint event")
	rpcTimeout := flag.Duration("rpc-timeout", 10*time.Second, "per-call handler timeout")
	certFile := flag.String("tls-cert", "", "TLS certificate (PEM); empty serves plaintext")
	keyFile := flag.String("tls-key", "", "TLS private key (PEM)")
	dev := flag.Bool("dev", false, "development logging and server reflection")
	flag.Parse()

	var logger *zap.Logger
	if *dev {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
		zap.String("wsAddr", *wsAddr),
	)

	var opts []grpc.ServerOption
	if *certFile != "" || *keyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(*certFile, *keyFile)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var repo repository.RoomRepository
	if *dsn == "" {
		logger.Warn("no dsn, rooms are kept in memory")
		repo = memory.NewRoomRepo()
	} else {
		if err := migrate.Up(ctx, *dsn); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, *dsn)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		repo = postgres.NewRoomRepo(db)
	}
	rooms := service.NewRoomService(repo, *maxBatch)

	// gRPC server with interceptors
	opts = append(opts, grpc.ChainUnaryInterceptor(
		grpcserver.RecoverUnary(logger),
		grpcserver.LoggingUnary(logger),
		grpcserver.TimeoutUnary(*rpcTimeout),
	))
	s := grpc.NewServer(opts...)
	wire.RegisterPaintStreamServer(s, grpcserver.New(rooms))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if *dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening (gRPC)", zap.String("addr", *addr), zap.Bool("tls", *certFile != ""))
		errCh <- s.Serve(lis)
	}()

	var hsrv *http.Server
	if *wsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", ws.NewHandler(rooms, logger).WithTimeout(*rpcTimeout))
		hsrv = &http.Server{Addr: *wsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("listening (websocket)", zap.String("addr", *wsAddr))
			if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()
		// graceful shutdown
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		if hsrv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = hsrv.Shutdown(sctx)
			cancel()
		}
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
