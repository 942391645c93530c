//go:build ignore
// +build ignore

// Seeds a locally running server with a demo trade and loss history.
//
// Usage:
//
//	USE_MEMORY_STORE=true go run ./cmd/server &
//	go run scripts/seed-data.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8113"
	}
	owner := os.Getenv("OWNER")
	if owner == "" {
		owner = "local-dev-user"
	}

	log.Printf("seeding data for owner %s via %s", owner, apiURL)

	trades := []map[string]any{
		{"owner": owner, "code": "VAS", "action": "buy", "date": "2023-08-15", "units": 120, "price": 88.40, "fee": 9.50},
		{"owner": owner, "code": "VAS", "action": "buy", "date": "2024-02-01", "units": 80, "price": 95.10, "fee": 9.50},
		{"owner": owner, "code": "VGS", "action": "buy", "date": "2023-11-20", "units": 60, "price": 115.00, "fee": 9.50},
		{"owner": owner, "code": "BHP", "action": "buy", "date": "2024-07-10", "units": 200, "price": 44.80, "fee": 9.50},
		{"owner": owner, "code": "VAS", "action": "sell", "date": "2025-03-12", "units": 100, "price": 102.30, "fee": 9.50},
		{"owner": owner, "code": "BHP", "action": "sell", "date": "2025-05-02", "units": 150, "price": 39.60, "fee": 9.50},
	}
	for _, trade := range trades {
		if err := post(apiURL+"/v1/trades", trade); err != nil {
			log.Fatalf("seed trade: %v", err)
		}
	}
	log.Printf("created %d trades", len(trades))

	losses := []map[string]any{
		{"owner": owner, "fy": 2024, "amount": 1500, "source_fy": 2023},
	}
	for _, loss := range losses {
		if err := post(apiURL+"/v1/losses", loss); err != nil {
			log.Fatalf("seed loss: %v", err)
		}
	}
	log.Printf("created %d losses", len(losses))

	log.Printf("done; try: curl '%s/v1/plan?owner=%s'", apiURL, owner)
}

func post(url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return nil
}
