package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmaker/internal/config"
	"github.com/abhisek/quizmaker/internal/store"
)

type memTemplates struct {
	mu   sync.Mutex
	byID map[string]*store.Template
}

func newMemTemplates() *memTemplates {
	return &memTemplates{byID: map[string]*store.Template{}}
}

func (m *memTemplates) Save(_ context.Context, t *store.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if old, ok := m.byID[t.Name]; ok {
		t.ID, t.CreatedAt = old.ID, old.CreatedAt
	} else {
		t.ID, t.CreatedAt = fmt.Sprintf("t-%d", len(m.byID)+1), now
	}
	t.UpdatedAt = now
	cp := *t
	m.byID[t.Name] = &cp
	return nil
}

func (m *memTemplates) Get(_ context.Context, name string) (*store.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[name]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", name, store.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memTemplates) List(context.Context) ([]*store.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Template
	for _, t := range m.byID {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memTemplates) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[name]; !ok {
		return fmt.Errorf("template %q: %w", name, store.ErrNotFound)
	}
	delete(m.byID, name)
	return nil
}

func newTestServer(t *testing.T, repo store.TemplateRepo) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MaxSamples = 3
	cfg.MaxCombinations = 4
	ts := httptest.NewServer(New(cfg, repo).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

const choiceVars = `{
  "c": {"rule_data": {"type": "random_choice", "choices": ["x", "y"]}},
  "d": {"rule_data": {"type": "random_choice", "choices": ["1", "2", "3"]}}
}`

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	code, body := do(t, ts, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSamples(t *testing.T) {
	ts := newTestServer(t, nil)

	vars := `{"a": {"rule_data": {"type": "random_number", "min": 2, "max": 2}},
	          "b": {"rule_data": {"type": "math_expression", "expression": "a * 10"}}}`
	code, body := do(t, ts, http.MethodPost, "/api/samples", `{"variables": `+vars+`, "count": 2, "seed": 7}`)
	require.Equal(t, http.StatusOK, code)
	samples := body["samples"].([]any)
	require.Len(t, samples, 2)
	first := samples[0].(map[string]any)
	assert.Equal(t, 2.0, first["a"])
	assert.Equal(t, 20.0, first["b"])
}

func TestSamples_CountClamped(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := do(t, ts, http.MethodPost, "/api/samples", `{"count": 100}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["samples"], 3)

	code, body = do(t, ts, http.MethodPost, "/api/samples", `{"count": 0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["samples"], 1)
}

func TestSamples_All(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := do(t, ts, http.MethodPost, "/api/samples", `{"all": true, "variables": {"c": {"rule_data": {"type": "random_choice", "choices": ["x", "y"]}}}}`)
	require.Equal(t, http.StatusOK, code)
	samples := body["samples"].([]any)
	require.Len(t, samples, 2)
	assert.Equal(t, "x", samples[0].(map[string]any)["c"])
	assert.Equal(t, "y", samples[1].(map[string]any)["c"])

	code, body = do(t, ts, http.MethodPost, "/api/samples", `{"all": true, "variables": `+choiceVars+`}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "6 combinations")
}

func TestSamples_BadBody(t *testing.T) {
	ts := newTestServer(t, nil)
	code, body := do(t, ts, http.MethodPost, "/api/samples", `{"variables": []}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid request body")
}

func TestRenderAndEvaluate(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := do(t, ts, http.MethodPost, "/api/render", `{"template": "**{{a}}** + {{a + 1}}", "sample": {"a": 4}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<strong>4</strong> + 5", body["text"])

	code, body = do(t, ts, http.MethodPost, "/api/render", `{"template": "{{ missing }}"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "{{missing}}", body["text"])

	code, body = do(t, ts, http.MethodPost, "/api/evaluate", `{"expression": "a * 3", "sample": {"a": 4}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "12", body["result"])

	code, _ = do(t, ts, http.MethodPost, "/api/render", `{"template": "x", "sample": [1]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFormat(t *testing.T) {
	ts := newTestServer(t, nil)
	code, body := do(t, ts, http.MethodPost, "/api/format", `{"text": "~~old~~ ==new=="}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<s>old</s> <mark>new</mark>", body["text"])
}

const testDoc = `{
  "variables": {"a": {"rule_data": {"type": "random_number", "min": 1, "max": 9}}},
  "template": "What is {{a}} + 1?",
  "template_data": {"type": "open", "answer_key": "a + 1"}
}`

func TestPreview(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := do(t, ts, http.MethodPost, "/api/preview", `{"document": `+testDoc+`, "samples": [{"a": 3}, {"a": 5}]}`)
	require.Equal(t, http.StatusOK, code)
	qs := body["questions"].([]any)
	require.Len(t, qs, 2)
	assert.Equal(t, "What is 3 + 1?", qs[0].(map[string]any)["text"])
	assert.Equal(t, "6", qs[1].(map[string]any)["answer"])

	code, body = do(t, ts, http.MethodPost, "/api/preview", `{"document": `+testDoc+`}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["questions"], 1)

	code, _ = do(t, ts, http.MethodPost, "/api/preview", `{"document": {"variables": {}}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestValidate(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := do(t, ts, http.MethodPost, "/api/validate", `{"document": `+testDoc+`}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["problems"])

	bad := `{"variables": {}, "template": "{{nope}}", "template_data": {"type": "open"}}`
	code, body = do(t, ts, http.MethodPost, "/api/validate", `{"document": `+bad+`}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["problems"])
}

func TestTemplates(t *testing.T) {
	ts := newTestServer(t, newMemTemplates())

	code, body := do(t, ts, http.MethodPut, "/api/templates/add-one", testDoc)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "add-one", body["name"])
	assert.NotEmpty(t, body["id"])

	code, body = do(t, ts, http.MethodGet, "/api/templates/", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["templates"], 1)

	code, body = do(t, ts, http.MethodGet, "/api/templates/add-one", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "What is {{a}} + 1?", body["template"])
	assert.Equal(t, "v1.0.0", body["format_version"])

	code, _ = do(t, ts, http.MethodDelete, "/api/templates/add-one", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, body = do(t, ts, http.MethodGet, "/api/templates/add-one", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "not found")

	code, _ = do(t, ts, http.MethodDelete, "/api/templates/add-one", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, ts, http.MethodPut, "/api/templates/broken", `{"template": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTemplates_NoStore(t *testing.T) {
	ts := newTestServer(t, nil)
	code, _ := do(t, ts, http.MethodGet, "/api/templates/", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/render", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
