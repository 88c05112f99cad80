package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/patient-ledger/internal/app"
	"github.com/hackgods/patient-ledger/internal/config"
	"github.com/hackgods/patient-ledger/internal/host"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("transfer-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	// A separate process only serializes with the server through Redis.
	if cfg.LockDriver != "redis" {
		log.Fatal("transfer-worker needs LOCK_DRIVER=redis; use SETTLE_IN_PROCESS=true on ledger-server instead")
	}

	log.Printf("running transfer worker in env=%s contract=%s interval=%s batch=%d",
		cfg.Env, cfg.ContractID, cfg.WorkerInterval, cfg.TransferBatch)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(rootCtx, 10*time.Second)
	a, err := app.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer a.Close()

	settler := host.NewSettler(a.Runtime, host.LogPayout{}, cfg.TransferBatch)

	// Run once at startup
	runOnce(rootCtx, settler)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping transfer worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, settler)
		}
	}
}

func runOnce(ctx context.Context, settler *host.Settler) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	report, err := settler.SettlePending(runCtx)
	if err != nil {
		log.Printf("settlement run error: %v", err)
		return
	}
	log.Printf("settlement run complete in %s settled=%d failed=%d pending=%d",
		time.Since(start), report.Settled, report.Failed, report.Pending)
}
