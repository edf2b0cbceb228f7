package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and model calls.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)
	generations    = make(map[llmKey]int64)
	extractions    = make(map[outcomeKey]int64)
	validations    = make(map[outcomeKey]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type llmKey struct {
	Provider string
	Model    string
	Success  string
}

type outcomeKey struct {
	Route   string
	Outcome string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordGeneration increments the model call counter.
func RecordGeneration(provider, model string, success bool) {
	mu.Lock()
	defer mu.Unlock()

	s := "false"
	if success {
		s = "true"
	}
	generations[llmKey{Provider: provider, Model: model, Success: s}]++
}

// RecordExtraction counts JSON extraction outcomes per route
// ("ok", "no_json", "malformed").
func RecordExtraction(route, outcome string) {
	mu.Lock()
	defer mu.Unlock()
	extractions[outcomeKey{Route: route, Outcome: outcome}]++
}

// RecordValidation counts schema validation outcomes per route.
func RecordValidation(route string, valid bool) {
	mu.Lock()
	defer mu.Unlock()

	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	validations[outcomeKey{Route: route, Outcome: outcome}]++
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP passageai_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE passageai_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		fmt.Fprintf(&b, "passageai_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, requestsTotal[k])
	}

	b.WriteString("# HELP passageai_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE passageai_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP passageai_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE passageai_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		fmt.Fprintf(&b, "passageai_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsSum[k])
		fmt.Fprintf(&b, "passageai_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsCount[k])
	}

	b.WriteString("# HELP passageai_llm_generations_total Total model calls\n")
	b.WriteString("# TYPE passageai_llm_generations_total counter\n")

	var llmKeys []llmKey
	for k := range generations {
		llmKeys = append(llmKeys, k)
	}
	sort.Slice(llmKeys, func(i, j int) bool {
		if llmKeys[i].Provider != llmKeys[j].Provider {
			return llmKeys[i].Provider < llmKeys[j].Provider
		}
		if llmKeys[i].Model != llmKeys[j].Model {
			return llmKeys[i].Model < llmKeys[j].Model
		}
		return llmKeys[i].Success < llmKeys[j].Success
	})

	for _, k := range llmKeys {
		fmt.Fprintf(&b, "passageai_llm_generations_total{provider=\"%s\",model=\"%s\",success=\"%s\"} %d\n",
			k.Provider, k.Model, k.Success, generations[k])
	}

	writeOutcomes(&b, "passageai_extractions_total", "JSON extraction outcomes by route", extractions)
	writeOutcomes(&b, "passageai_schema_validations_total", "Schema validation outcomes by route", validations)

	return b.String()
}

func writeOutcomes(b *strings.Builder, name, help string, m map[outcomeKey]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)

	keys := make([]outcomeKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Route != keys[j].Route {
			return keys[i].Route < keys[j].Route
		}
		return keys[i].Outcome < keys[j].Outcome
	})

	for _, k := range keys {
		fmt.Fprintf(b, "%s{route=\"%s\",outcome=\"%s\"} %d\n", name, k.Route, k.Outcome, m[k])
	}
}
