package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"passageai/internal/config"
	"passageai/internal/llm"
)

// stubGenerator is a deterministic model that records every prompt.
type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newInvoker(gen *stubGenerator) *llm.Invoker {
	return llm.NewInvoker(gen, llm.ProviderGoogle, "gemini-test", 0, nil)
}

func newTestServer(gen *stubGenerator) *Server {
	cfg := config.Default()
	cfg.LLM.Google.APIKey = "test-key"
	return NewServer(cfg, newInvoker(gen), nil)
}

func doPost(t *testing.T, s *Server, path, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func decodeError(t *testing.T, body string) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode error response %q: %v", body, err)
	}
	return out
}

const validAnalysis = `{"vocabulary":[{"word":"ebb","meaning":"outgoing tide"}],"title":"Tides","main_idea":{"direct":"The moon causes tides.","indirect":"Forces interconnect."},"facts_opinions_inferences":[{"type":"Opinion","text":"Tides are beautiful."}],"transitions":[{"src":"moon","dest":"tide","relation":"causal"}],"keywords":["tide"],"purpose":"To inform."}`

func TestRoutes_MissingPassageNeverCallsModel(t *testing.T) {
	for _, path := range []string{"/analyze", "/mindmap", "/solve"} {
		for _, body := range []string{`{}`, `{"passage": ""}`, `{"passage": null, "questions": ["q"]}`, ``} {
			gen := &stubGenerator{reply: validAnalysis}
			s := newTestServer(gen)

			resp, out := doPost(t, s, path, body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("%s %q: expected 400, got %d (%s)", path, body, resp.StatusCode, out)
			}
			if got := decodeError(t, out).Code; got != "MISSING_PASSAGE" {
				t.Fatalf("%s %q: expected MISSING_PASSAGE, got %s", path, body, got)
			}
			if gen.calls() != 0 {
				t.Fatalf("%s %q: expected zero model calls, got %d", path, body, gen.calls())
			}
		}
	}
}

func TestRoutes_MalformedBody(t *testing.T) {
	gen := &stubGenerator{}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/analyze", `{"passage": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if got := decodeError(t, out).Code; got != "BAD_REQUEST_INVALID_JSON" {
		t.Fatalf("expected BAD_REQUEST_INVALID_JSON, got %s", got)
	}

	resp, _ = doPost(t, s, "/analyze", `{"passage": 12}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-string passage, got %d", resp.StatusCode)
	}
	if gen.calls() != 0 {
		t.Fatalf("expected zero model calls, got %d", gen.calls())
	}
}

func TestAnalyze_FencedReplyWithProse(t *testing.T) {
	gen := &stubGenerator{reply: "Sure, here is the analysis:\n```json\n" + validAnalysis + "\n```"}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/analyze", `{"passage": "The moon pulls the sea."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, out)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json, got %q", ct)
	}
	if out != validAnalysis {
		t.Fatalf("expected exact parsed object, got %s", out)
	}
	if !strings.Contains(gen.prompts[0], "Passage:\nThe moon pulls the sea.") {
		t.Fatalf("expected passage in prompt, got %q", gen.prompts[0])
	}
}

func TestAnalyze_SchemaFailure(t *testing.T) {
	invalid := strings.Replace(validAnalysis, `,"purpose":"To inform."`, "", 1)
	gen := &stubGenerator{reply: invalid}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/analyze", `{"passage": "p"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", resp.StatusCode, out)
	}

	er := decodeError(t, out)
	if er.Code != "SCHEMA_VALIDATION_FAILED" {
		t.Fatalf("expected SCHEMA_VALIDATION_FAILED, got %s", er.Code)
	}
	if len(er.ValidationErrors) == 0 {
		t.Fatalf("expected non-empty validationErrors")
	}
	if er.ValidationErrors[0].Keyword != "required" {
		t.Fatalf("expected required keyword, got %+v", er.ValidationErrors[0])
	}

	var got, want map[string]any
	if err := json.Unmarshal(er.RawOutput, &got); err != nil {
		t.Fatalf("decode rawOutput: %v", err)
	}
	if err := json.Unmarshal([]byte(invalid), &want); err != nil {
		t.Fatalf("decode expected: %v", err)
	}
	if got["title"] != want["title"] || len(got) != len(want) {
		t.Fatalf("expected rawOutput to be the invalid object, got %#v", got)
	}
	if _, ok := got["purpose"]; ok {
		t.Fatalf("rawOutput should not contain purpose")
	}
}

func TestJSONRoutes_NoJSONFound(t *testing.T) {
	cases := map[string]string{
		"/analyze": `{"passage": "p"}`,
		"/solve":   `{"passage": "p", "questions": "Why?"}`,
	}
	for path, body := range cases {
		gen := &stubGenerator{reply: "Sorry, I could not process this passage."}
		s := newTestServer(gen)

		resp, out := doPost(t, s, path, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
		er := decodeError(t, out)
		if er.Code != "NO_JSON_FOUND" || !strings.Contains(strings.ToLower(er.Error), "no json found") {
			t.Fatalf("%s: unexpected error %+v", path, er)
		}
	}
}

func TestJSONRoutes_MalformedSliceIsInternalError(t *testing.T) {
	// First '{' to last '}' spans two objects and the prose between them.
	gen := &stubGenerator{reply: `prefix {"a":1} middle {"b":2} suffix`}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/solve", `{"passage": "p", "questions": "q"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (%s)", resp.StatusCode, out)
	}
	if got := decodeError(t, out).Code; got != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %s", got)
	}
}

func TestRoutes_UpstreamErrorIsInternalError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider unavailable")}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/mindmap", `{"passage": "p"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if er := decodeError(t, out); !strings.Contains(er.Error, "provider unavailable") {
		t.Fatalf("expected underlying message, got %+v", er)
	}
	if gen.calls() != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", gen.calls())
	}
}

func TestMindmap_IdempotentStrippedOutput(t *testing.T) {
	gen := &stubGenerator{reply: "```html\n<div class=\"mindmap\"><ul><li>Tides<ul><li>Moon</li></ul></li></ul></div>\n```"}
	s := newTestServer(gen)

	resp1, out1 := doPost(t, s, "/mindmap", `{"passage": "The moon pulls the sea."}`)
	resp2, out2 := doPost(t, s, "/mindmap", `{"passage": "The moon pulls the sea."}`)

	if resp1.StatusCode != http.StatusOK || resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", resp1.StatusCode, resp2.StatusCode)
	}
	if out1 != out2 {
		t.Fatalf("expected byte-identical output, got %q and %q", out1, out2)
	}
	if out1 != `<div class="mindmap"><ul><li>Tides<ul><li>Moon</li></ul></li></ul></div>` {
		t.Fatalf("expected fences stripped, got %q", out1)
	}
	if ct := resp1.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html, got %q", ct)
	}
}

func TestMindmap_PlainTextContentType(t *testing.T) {
	gen := &stubGenerator{reply: "```\nTides\n  Moon\n```"}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/mindmap", `{"passage": "p"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out != "Tides\n  Moon" {
		t.Fatalf("unexpected body %q", out)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
}

func TestSolve_QuestionFormatting(t *testing.T) {
	gen := &stubGenerator{reply: `{"answers":[{"question":"What is X?","answer":"X"}]}`}
	s := newTestServer(gen)

	resp, out := doPost(t, s, "/solve", `{"passage": "p", "questions": ["What is X?", "Why Y?"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, out)
	}
	if out != `{"answers":[{"question":"What is X?","answer":"X"}]}` {
		t.Fatalf("unexpected body %s", out)
	}
	if !strings.Contains(gen.prompts[0], "1. What is X?\n2. Why Y?") {
		t.Fatalf("expected numbered questions on consecutive lines, got %q", gen.prompts[0])
	}

	resp, _ = doPost(t, s, "/solve", `{"passage": "p", "questions": "What is X? Also, why Y?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(gen.prompts[1], "What is X? Also, why Y?") || strings.Contains(gen.prompts[1], "1. What") {
		t.Fatalf("expected plain string unmodified, got %q", gen.prompts[1])
	}
}

func TestSolve_MissingQuestions(t *testing.T) {
	for _, body := range []string{`{"passage": "p"}`, `{"passage": "p", "questions": ""}`, `{"passage": "p", "questions": null}`} {
		gen := &stubGenerator{reply: `{}`}
		s := newTestServer(gen)

		resp, out := doPost(t, s, "/solve", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
		if got := decodeError(t, out).Code; got != "MISSING_QUESTIONS" {
			t.Fatalf("%s: expected MISSING_QUESTIONS, got %s", body, got)
		}
		if gen.calls() != 0 {
			t.Fatalf("%s: expected zero model calls, got %d", body, gen.calls())
		}
	}
}

func TestSolve_InvalidQuestionsType(t *testing.T) {
	gen := &stubGenerator{reply: `{}`}
	s := newTestServer(gen)

	resp, _ := doPost(t, s, "/solve", `{"passage": "p", "questions": 7}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if gen.calls() != 0 {
		t.Fatalf("expected zero model calls, got %d", gen.calls())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" || health["provider"] != "google" || health["model"] != "gemini-test" {
		t.Fatalf("unexpected health %v", health)
	}

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `passageai_http_requests_total{method="GET",path="/healthz",status="200"}`) {
		t.Fatalf("expected healthz request in metrics, got:\n%s", body)
	}
}

func getMetrics(t *testing.T, s *Server) string {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

// seriesValue returns the sample value of the exported series, or -1 when
// the series is absent.
func seriesValue(export, series string) int64 {
	for _, line := range strings.Split(export, "\n") {
		if rest, ok := strings.CutPrefix(line, series+" "); ok {
			v, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return -1
			}
			return v
		}
	}
	return -1
}

func TestMetrics_LabelsSurviveLaterRequests(t *testing.T) {
	s := newTestServer(&stubGenerator{})
	healthz := `passageai_http_requests_total{method="GET",path="/healthz",status="200"}`
	before := seriesValue(getMetrics(t, s), healthz)
	if before < 0 {
		before = 0
	}

	for i := 0; i < 2; i++ {
		if _, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1); err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
	}
	if _, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/zzzzzzz", nil), -1); err != nil {
		t.Fatalf("app.Test error: %v", err)
	}

	export := getMetrics(t, s)
	if got := seriesValue(export, healthz); got != before+2 {
		t.Fatalf("expected healthz count %d, got %d in:\n%s", before+2, got, export)
	}
	if got := seriesValue(export, `passageai_http_requests_total{method="GET",path="unmatched",status="404"}`); got < 1 {
		t.Fatalf("expected unmatched 404 series, got %d in:\n%s", got, export)
	}
	if got := seriesValue(export, `passageai_http_requests_total{method="GET",path="/metrics",status="200"}`); got < 1 {
		t.Fatalf("expected metrics series with a positive count, got %d", got)
	}
}

func TestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	s := newTestServer(&stubGenerator{})

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/random-"+strconv.Itoa(i), nil)
		if _, err := s.App().Test(req, -1); err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
	}

	export := getMetrics(t, s)
	if strings.Contains(export, "/random-") {
		t.Fatalf("expected no per-path series for unknown routes, got:\n%s", export)
	}
	if got := seriesValue(export, `passageai_http_requests_total{method="GET",path="unmatched",status="404"}`); got < 50 {
		t.Fatalf("expected at least 50 unmatched requests, got %d", got)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(&stubGenerator{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodPost, "/summarize", nil), -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestConfiguredRoutePaths(t *testing.T) {
	cfg := config.Default()
	cfg.Routes.Analyze = "/v1/analyze"
	cfg.Prompts.Analyze = "CUSTOM ANALYZE"
	gen := &stubGenerator{reply: validAnalysis}
	s := NewServer(cfg, newInvoker(gen), nil)

	resp, _ := doPost(t, s, "/v1/analyze", `{"passage": "p"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on configured path, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(gen.prompts[0], "CUSTOM ANALYZE\n\nPassage:\np") {
		t.Fatalf("expected configured prompt template, got %q", gen.prompts[0])
	}

	resp, _ = doPost(t, s, "/analyze", `{"passage": "p"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected default path unmounted, got %d", resp.StatusCode)
	}
}
