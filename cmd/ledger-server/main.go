package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/patient-ledger/internal/api"
	"github.com/hackgods/patient-ledger/internal/app"
	"github.com/hackgods/patient-ledger/internal/config"
	"github.com/hackgods/patient-ledger/internal/host"
)

var version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("ledger-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s contract=%s storage=%s lock=%s",
		cfg.Env, cfg.HTTPPort, cfg.ContractID, cfg.StorageDriver, cfg.LockDriver)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	a, err := app.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer a.Close()

	if cfg.SettleInProcess {
		go settleLoop(rootCtx, host.NewSettler(a.Runtime, host.LogPayout{}, cfg.TransferBatch), cfg.WorkerInterval)
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Runtime: a.Runtime,
			Checks:  a.HealthChecks(),
			Env:     cfg.Env,
			Version: version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Printf("http server error: %v", err)
		}
	}

	log.Println("shutting down ledger-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func settleLoop(ctx context.Context, settler *host.Settler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := settler.SettlePending(ctx)
			if err != nil {
				log.Printf("settlement run error: %v", err)
				continue
			}
			if report.Settled > 0 || report.Failed > 0 {
				log.Printf("settlement run settled=%d failed=%d pending=%d", report.Settled, report.Failed, report.Pending)
			}
		}
	}
}
