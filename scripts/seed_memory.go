//go:build ignore

// Seed_memory populates the memory store of a running service by replaying
// a corpus of fault descriptions through the text endpoint. The electronics
// domain stores a case per diagnosis, so repeated rounds build up the
// history that pattern matching draws on.
//
// Usage:
//
//	go run seed_memory.go -url http://localhost:8080 -rounds 3
//
// Exit codes:
//
//	0 - Seeding completed
//	2 - Request or decode errors
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var faultCorpus = []string{
	"the amplifier is completely dead, no power light at all",
	"burning smell from the power supply area and a blown fuse",
	"capacitor on the main board is bulged and leaking electrolyte",
	"no sound from either channel although the unit powers on",
	"loud hum and crackling distortion on the left output",
	"the unit overheats within minutes and shuts itself down",
	"intermittent cutouts, tapping the board makes the sound return",
	"voltage regulator runs extremely hot and the rail reads low",
	"display is blank but the relay clicks when switching inputs",
	"cold solder joints around the output transistors, audio drops out",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Service base URL")
	rounds := flag.Int("rounds", 1, "Number of corpus replays")
	timeoutSec := flag.Int("timeout", 10, "Per-request timeout in seconds")
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	domainCounts := map[string]int{}
	sent := 0
	failed := 0

	for round := 0; round < *rounds; round++ {
		for _, text := range faultCorpus {
			payload, _ := json.Marshal(map[string]any{
				"text":   text,
				"source": "seed",
			})

			resp, err := client.Post(*baseURL+"/process/text", "application/json", bytes.NewReader(payload))
			if err != nil {
				fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
				os.Exit(2)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			sent++

			if resp.StatusCode != http.StatusOK {
				failed++
				fmt.Fprintf(os.Stderr, "status %d: %s\n", resp.StatusCode, body)
				continue
			}

			var parsed struct {
				Response struct {
					Domain string `json:"domain"`
				} `json:"response"`
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
				os.Exit(2)
			}
			domainCounts[parsed.Response.Domain]++
		}
	}

	fmt.Printf("Seeded %d inputs (%d failed)\n", sent, failed)
	fmt.Println("Routed domains:")
	for k, v := range domainCounts {
		fmt.Printf("  %s -> %d\n", k, v)
	}

	// what the store holds now
	resp, err := client.Get(*baseURL + "/memory/stats")
	if err != nil {
		fmt.Fprintf(os.Stderr, "memory stats request failed: %v\n", err)
		os.Exit(2)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "memory stats status %d: %s\n", resp.StatusCode, body)
		os.Exit(2)
	}

	var stats struct {
		TotalEntries int            `json:"total_entries"`
		TypeCounts   map[string]int `json:"type_counts"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		fmt.Fprintf(os.Stderr, "memory stats decode failed: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("\nMemory store: %d entries\n", stats.TotalEntries)
	for k, v := range stats.TypeCounts {
		fmt.Printf("  %s -> %d\n", k, v)
	}
}
