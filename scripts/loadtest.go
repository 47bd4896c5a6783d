//go:build ignore

// Loadtest is a concurrent HTTP load testing tool that measures throughput,
// latency percentiles, and domain routing distribution for the processing
// service.
//
// Usage:
//
//	go run loadtest.go -url http://localhost:8080/process/text -concurrency 10 -requests 1000
//	go run loadtest.go -concurrency 50 -requests 5000 -csv results.csv -out summary.json
//
// Features:
//   - Concurrent workers for high throughput testing
//   - Per-domain latency and distribution statistics
//   - CSV output with per-request details
//   - JSON summary with percentiles (p50, p90, p95, p99)
//   - Rotating sample corpus that exercises every text-capable domain
//   - Fake IP distribution via X-Forwarded-For header for access log testing
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// sampleTexts rotates through inputs that route to different domains:
// repair vocabulary lands on electronics, the rest on text analysis.
var sampleTexts = []string{
	"the amplifier has no power and there is a burning smell",
	"what a bright and wonderful morning this is",
	"capacitor near the power supply looks bulged and leaking",
	"I am thoroughly disappointed with how slow everything feels",
	"no sound from the left channel after the board got hot",
	"the weather forecast promises a calm and pleasant weekend",
	"crackling distortion on the output stage, suspect a cold solder joint",
	"please summarize the quarterly report for the leadership sync",
	"device keeps restarting and the voltage regulator runs very hot",
	"thank you so much, the support team was absolutely great",
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/process/text", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		body        = flag.String("body", "", "Fixed request body (default: rotate the sample corpus)")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)

	outJSON := flag.String("out", "", "Write JSON summary to this file (optional)")
	outCSV := flag.String("csv", "", "Write per-request CSV to this file (optional)")
	verbose := flag.Bool("v", false, "Verbose per-request logging to stdout")
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var total int32
	var success int32
	var failure int32

	// DomainStats tracks statistics for one routed domain.
	type DomainStats struct {
		Count     int32           `json:"count"`
		Success   int32           `json:"success"`
		Failure   int32           `json:"failure"`
		Latencies []time.Duration `json:"-"`
	}

	domainStats := make(map[string]*DomainStats)
	var domainMu sync.Mutex

	var allLatencies []time.Duration
	var latMu sync.Mutex

	statusCodes := make(map[int]int32)
	var statusMu sync.Mutex

	// open CSV if requested
	var csvFile *os.File
	var csvWriter *csv.Writer
	var csvMu sync.Mutex
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create csv file: %v\n", err)
			os.Exit(1)
		}
		csvFile = f
		csvWriter = csv.NewWriter(f)
		// header
		csvWriter.Write([]string{"idx", "timestamp", "domain", "status", "duration_ms"})
	}

	requestBody := func(idx int) []byte {
		if *body != "" {
			return []byte(*body)
		}
		payload := map[string]any{
			"text":   sampleTexts[idx%len(sampleTexts)],
			"source": "loadtest",
		}
		b, _ := json.Marshal(payload)
		return b
	}

	testStart := time.Now()

	// worker
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				atomic.AddInt32(&total, 1)
				start := time.Now()

				req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(requestBody(idx)))
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				req.Header.Set("Content-Type", "application/json")

				// Fake different source IPs using X-Forwarded-For header
				fakeIP := fmt.Sprintf("192.168.1.%d", (idx%50)+1)
				req.Header.Set("X-Forwarded-For", fakeIP)

				resp, err := client.Do(req)
				dur := time.Since(start)

				// record overall latency
				latMu.Lock()
				allLatencies = append(allLatencies, dur)
				latMu.Unlock()

				if err != nil {
					atomic.AddInt32(&failure, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				// status code map
				statusMu.Lock()
				statusCodes[resp.StatusCode]++
				statusMu.Unlock()

				if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
					atomic.AddInt32(&success, 1)
				} else {
					atomic.AddInt32(&failure, 1)
				}

				respBody, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				var parsed struct {
					Response struct {
						Domain string `json:"domain"`
					} `json:"response"`
				}
				domain := "(none)"
				if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Response.Domain != "" {
					domain = parsed.Response.Domain
				}

				domainMu.Lock()
				ds, ok := domainStats[domain]
				if !ok {
					ds = &DomainStats{}
					domainStats[domain] = ds
				}
				ds.Count++
				if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
					ds.Success++
				} else {
					ds.Failure++
				}
				ds.Latencies = append(ds.Latencies, dur)
				domainMu.Unlock()

				// optional CSV row and verbose
				if csvWriter != nil {
					csvMu.Lock()
					csvWriter.Write([]string{
						fmt.Sprintf("%d", idx),
						time.Now().Format(time.RFC3339Nano),
						domain,
						fmt.Sprintf("%d", resp.StatusCode),
						fmt.Sprintf("%.3f", float64(dur.Microseconds())/1000.0),
					})
					csvMu.Unlock()
				}

				if *verbose {
					fmt.Printf("[%d] idx=%d domain=%s status=%d dur=%v\n", workerID, idx, domain, resp.StatusCode, dur)
				}
			}
		}(i)
	}

	// send jobs
	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	testEnd := time.Now()

	if csvWriter != nil {
		csvWriter.Flush()
		csvFile.Close()
	}

	// summarize
	totalDuration := testEnd.Sub(testStart)
	throughput := float64(total) / totalDuration.Seconds()

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Requests: %d  Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Total sent: %d  Success: %d  Failure: %d\n", total, success, failure)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, throughput)

	// status codes
	fmt.Println("\nStatus codes:")
	statusMu.Lock()
	var scKeys []int
	for k := range statusCodes {
		scKeys = append(scKeys, k)
	}
	sort.Ints(scKeys)
	for _, k := range scKeys {
		fmt.Printf("  %d -> %d\n", k, statusCodes[k])
	}
	statusMu.Unlock()

	// domains
	fmt.Println("\nDomain distribution & stats:")
	domainMu.Lock()
	var domainKeys []string
	for k := range domainStats {
		domainKeys = append(domainKeys, k)
	}
	sort.Strings(domainKeys)
	for _, k := range domainKeys {
		ds := domainStats[k]
		// compute latency stats for this domain
		var min, max time.Duration
		var sum time.Duration
		latCount := len(ds.Latencies)
		if latCount > 0 {
			min = ds.Latencies[0]
			for _, d := range ds.Latencies {
				if d < min {
					min = d
				}
				if d > max {
					max = d
				}
				sum += d
			}
		}
		var avg time.Duration
		if latCount > 0 {
			avg = sum / time.Duration(latCount)
		}

		// percentiles
		var p50, p90, p95, p99 time.Duration
		if latCount > 0 {
			// make a copy and sort
			tmp := make([]time.Duration, latCount)
			copy(tmp, ds.Latencies)
			sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
			p := func(pct float64) time.Duration {
				idx := int(float64(len(tmp)-1) * pct)
				if idx < 0 {
					idx = 0
				}
				if idx >= len(tmp) {
					idx = len(tmp) - 1
				}
				return tmp[idx]
			}
			p50 = p(0.50)
			p90 = p(0.90)
			p95 = p(0.95)
			p99 = p(0.99)
		}

		fmt.Printf("  %s -> total=%d success=%d failure=%d\n", k, ds.Count, ds.Success, ds.Failure)
		if latCount > 0 {
			fmt.Printf("    latencies: samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
				latCount, min, avg, max, p50, p90, p95, p99)
		}
	}
	domainMu.Unlock()

	// overall latencies
	if len(allLatencies) > 0 {
		tmp := make([]time.Duration, len(allLatencies))
		copy(tmp, allLatencies)
		sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
		var sum time.Duration
		for _, d := range tmp {
			sum += d
		}
		avg := sum / time.Duration(len(tmp))
		fmt.Println("\nOverall latencies:")
		fmt.Printf("  samples=%d min=%v avg=%v max=%v p50=%v p90=%v p95=%v p99=%v\n",
			len(tmp), tmp[0], avg, tmp[len(tmp)-1], tmp[int(0.5*float64(len(tmp)-1))], tmp[int(0.9*float64(len(tmp)-1))], tmp[int(0.95*float64(len(tmp)-1))], tmp[int(0.99*float64(len(tmp)-1))])
	}

	// quick memory/CPU hint
	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	// optional JSON output
	if *outJSON != "" {
		type DomainSummary struct {
			Total   int32   `json:"total"`
			Success int32   `json:"success"`
			Failure int32   `json:"failure"`
			P50     float64 `json:"p50_ms"`
			P90     float64 `json:"p90_ms"`
			P95     float64 `json:"p95_ms"`
			P99     float64 `json:"p99_ms"`
		}
		report := map[string]interface{}{}
		report["target"] = *url
		report["requests"] = *requests
		report["concurrency"] = *concurrency
		report["total_sent"] = total
		report["success"] = success
		report["failure"] = failure
		report["duration_ms"] = totalDuration.Milliseconds()
		report["throughput_rps"] = throughput

		dsum := map[string]DomainSummary{}
		domainMu.Lock()
		for k, v := range domainStats {
			ds := DomainSummary{Total: v.Count, Success: v.Success, Failure: v.Failure}
			if len(v.Latencies) > 0 {
				tmp := make([]time.Duration, len(v.Latencies))
				copy(tmp, v.Latencies)
				sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
				pick := func(p float64) float64 { return float64(tmp[int(float64(len(tmp)-1)*p)].Milliseconds()) }
				ds.P50 = pick(0.50)
				ds.P90 = pick(0.90)
				ds.P95 = pick(0.95)
				ds.P99 = pick(0.99)
			}
			dsum[k] = ds
		}
		domainMu.Unlock()
		report["domains"] = dsum

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	// exit with non-zero if there were failures
	if failure > 0 {
		os.Exit(2)
	}
}
