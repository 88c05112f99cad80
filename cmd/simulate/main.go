package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Patients      int
	ScheduleRatio float64
	DepositRatio  float64
	WithdrawRatio float64
	ReadRatio     float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

// Record counts a rejected call (4xx from a failed precondition) apart from
// transport or server errors.
func (om *OperationMetrics) Record(latency time.Duration, success bool, rejected bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if rejected {
		atomic.AddInt64(&om.Rejected, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Schedule        OperationMetrics
	Deposit         OperationMetrics
	Withdraw        OperationMetrics
	GetPatient      OperationMetrics
	GetAppointments OperationMetrics
}

type Simulator struct {
	config   SimConfig
	patients []string
	client   *http.Client
	metrics  Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d patients=%d schedule=%.2f deposit=%.2f withdraw=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.Patients, cfg.ScheduleRatio, cfg.DepositRatio, cfg.WithdrawRatio, cfg.ReadRatio)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sim.registerPatients(ctx); err != nil {
		log.Fatalf("register patients: %v", err)
	}
	log.Printf("registered %d patients", len(sim.patients))

	sim.Run()

	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		Patients:      getInt("SIM_PATIENTS", 200),
		ScheduleRatio: getFloat("SIM_SCHEDULE_RATIO", 0.3),
		DepositRatio:  getFloat("SIM_DEPOSIT_RATIO", 0.2),
		WithdrawRatio: getFloat("SIM_WITHDRAW_RATIO", 0.1),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.4),
	}

	// Normalize ratios
	total := cfg.ScheduleRatio + cfg.DepositRatio + cfg.WithdrawRatio + cfg.ReadRatio
	if total > 0 {
		cfg.ScheduleRatio /= total
		cfg.DepositRatio /= total
		cfg.WithdrawRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Patients <= 0 {
		return fmt.Errorf("SIM_PATIENTS must be > 0")
	}
	return nil
}

// registerPatients creates a fresh set of identities so runs do not collide.
func (s *Simulator) registerPatients(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	for i := 0; i < s.config.Patients; i++ {
		id := fmt.Sprintf("sim-%s-%d.testnet", runID, i)
		args := map[string]any{"name": fmt.Sprintf("Sim Patient %d", i), "age": 20 + i%60}
		status, err := s.invoke(ctx, "call", "registerPatient", id, "", args)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("registerPatient %s: status %d", id, status)
		}
		s.patients = append(s.patients, id)
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			patient := s.patients[rng.Intn(len(s.patients))]
			r := rng.Float64()
			switch {
			case r < s.config.ScheduleRatio:
				s.doSchedule(ctx, rng, patient)
			case r < s.config.ScheduleRatio+s.config.DepositRatio:
				s.doDeposit(ctx, rng, patient)
			case r < s.config.ScheduleRatio+s.config.DepositRatio+s.config.WithdrawRatio:
				s.doWithdraw(ctx, rng, patient)
			default:
				if rng.Intn(2) == 0 {
					s.timed(&s.metrics.GetPatient, func() (int, error) {
						return s.invoke(ctx, "view", "getPatient", "", "", map[string]any{"patientId": patient})
					})
				} else {
					s.timed(&s.metrics.GetAppointments, func() (int, error) {
						return s.invoke(ctx, "view", "getAppointments", "", "", map[string]any{"patientId": patient})
					})
				}
			}
		}
	}
}

func (s *Simulator) doSchedule(ctx context.Context, rng *rand.Rand, patient string) {
	args := map[string]any{
		"patientId": patient,
		"date":      time.Now().AddDate(0, 0, rng.Intn(60)).Format("2006-01-02"),
		"doctor":    fmt.Sprintf("Dr. %c", 'A'+rng.Intn(26)),
		"fee":       strconv.Itoa(10 + rng.Intn(90)),
	}
	s.timed(&s.metrics.Schedule, func() (int, error) {
		return s.invoke(ctx, "call", "scheduleAppointment", patient, "", args)
	})
}

func (s *Simulator) doDeposit(ctx context.Context, rng *rand.Rand, patient string) {
	amount := strconv.Itoa(50 + rng.Intn(500))
	s.timed(&s.metrics.Deposit, func() (int, error) {
		return s.invoke(ctx, "call", "deposit", patient, amount, nil)
	})
}

func (s *Simulator) doWithdraw(ctx context.Context, rng *rand.Rand, patient string) {
	args := map[string]any{"amount": strconv.Itoa(1 + rng.Intn(100))}
	s.timed(&s.metrics.Withdraw, func() (int, error) {
		return s.invoke(ctx, "call", "withdraw", patient, "", args)
	})
}

func (s *Simulator) timed(om *OperationMetrics, fn func() (int, error)) {
	start := time.Now()
	status, err := fn()
	latency := time.Since(start)

	success := err == nil && status == http.StatusOK
	rejected := err == nil && status >= 400 && status < 500
	om.Record(latency, success, rejected)
}

func (s *Simulator) invoke(ctx context.Context, kind, method, caller, deposit string, args any) (int, error) {
	reqBody := map[string]any{"caller": caller}
	if deposit != "" {
		reqBody["deposit"] = deposit
	}
	if args != nil {
		reqBody["args"] = args
	}
	body, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/%s", s.config.APIBaseURL, kind, method), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Patients: %d\n", len(s.patients))
	fmt.Println()

	printOperationReport("scheduleAppointment", &s.metrics.Schedule)
	printOperationReport("deposit", &s.metrics.Deposit)
	printOperationReport("withdraw", &s.metrics.Withdraw)
	printOperationReport("getPatient", &s.metrics.GetPatient)
	printOperationReport("getAppointments", &s.metrics.GetAppointments)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	rejected := atomic.LoadInt64(&om.Rejected)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if rejected > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
