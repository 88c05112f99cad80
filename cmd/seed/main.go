package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/patient-ledger/internal/app"
	"github.com/hackgods/patient-ledger/internal/config"
	"github.com/hackgods/patient-ledger/internal/host"
	"github.com/hackgods/patient-ledger/internal/money"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	count := 500
	if v := os.Getenv("SEED_PATIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer a.Close()

	gofakeit.Seed(time.Now().UnixNano())

	ids, err := seedPatients(ctx, a.Runtime, count)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(ctx, a.Runtime, ids); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

var doctors = []string{
	"Dr. Smith",
	"Dr. Okafor",
	"Dr. Lindqvist",
	"Dr. Tanaka",
	"Dr. Haddad",
	"Dr. Moreau",
}

func seedPatients(ctx context.Context, rt *host.Runtime, count int) ([]string, error) {
	log.Printf("seeding %d patients", count)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%s%d.testnet", strings.ToLower(gofakeit.Username()), i)
		args, _ := json.Marshal(map[string]any{
			"name": gofakeit.Name(),
			"age":  gofakeit.Number(0, 99),
		})

		if err := call(ctx, rt, id, "registerPatient", money.Zero(), args); err != nil {
			return nil, err
		}

		// Opening balance between 100 and 10000 tokens of 10^18 base units each.
		tokens := gofakeit.Number(100, 10000)
		deposit := money.MustParse(strconv.Itoa(tokens) + "000000000000000000")
		if err := call(ctx, rt, id, "deposit", deposit, nil); err != nil {
			return nil, err
		}

		ids = append(ids, id)
		if (i+1)%100 == 0 {
			log.Printf("patients seeded: %d/%d", i+1, count)
		}
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, rt *host.Runtime, ids []string) error {
	log.Printf("seeding appointments for %d patients", len(ids))

	for _, id := range ids {
		n := gofakeit.Number(0, 3)
		for j := 0; j < n; j++ {
			args, _ := json.Marshal(map[string]any{
				"patientId": id,
				"date":      gofakeit.FutureDate().Format("2006-01-02"),
				"doctor":    doctors[gofakeit.Number(0, len(doctors)-1)],
				"fee":       strconv.Itoa(gofakeit.Number(10, 30)) + "000000000000000000",
			})
			if err := call(ctx, rt, id, "scheduleAppointment", money.Zero(), args); err != nil {
				return err
			}
		}
	}

	log.Println("appointments seeded")
	return nil
}

func call(ctx context.Context, rt *host.Runtime, caller, method string, deposit money.Amount, args json.RawMessage) error {
	_, err := rt.Invoke(ctx, host.Invocation{
		Method:  method,
		Kind:    host.KindCall,
		Caller:  caller,
		Deposit: deposit,
		Args:    args,
	})
	if err != nil {
		return fmt.Errorf("%s for %s: %w", method, caller, err)
	}
	return nil
}
