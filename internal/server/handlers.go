package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/quizmaker/internal/markup"
	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/render"
	"github.com/abhisek/quizmaker/internal/store"
	"github.com/abhisek/quizmaker/internal/variables"
)

const maxBodyBytes = 1 << 20

type samplesRequest struct {
	Variables *variables.Set `json:"variables"`
	Count     int            `json:"count"`
	All       bool           `json:"all"`
	Seed      *uint64        `json:"seed"`
}

type samplesResponse struct {
	Samples []map[string]any `json:"samples"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	var req samplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Variables == nil {
		req.Variables = variables.NewSet()
	}

	opts := []variables.Option{variables.WithPasses(s.cfg.Passes)}
	if req.Seed != nil {
		opts = append(opts, variables.WithSeed(*req.Seed))
	}
	gen := variables.NewGenerator(opts...)

	var samples []variables.Sample
	if req.All {
		if n := variables.Combinations(req.Variables); n > s.cfg.MaxCombinations {
			respondError(w, http.StatusBadRequest, fmt.Errorf("%d combinations exceed the limit of %d", n, s.cfg.MaxCombinations))
			return
		}
		samples = gen.ExpandAll(req.Variables)
	} else {
		count := min(max(req.Count, 1), s.cfg.MaxSamples)
		samples = make([]variables.Sample, count)
		for i := range samples {
			samples[i] = gen.Generate(req.Variables)
		}
	}
	respondJSON(w, http.StatusOK, samplesResponse{Samples: exportSamples(samples)})
}

type renderRequest struct {
	Template string          `json:"template"`
	Sample   json.RawMessage `json:"sample"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sample, err := decodeSample(req.Sample)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": render.Render(req.Template, sample)})
}

type evaluateRequest struct {
	Expression string          `json:"expression"`
	Sample     json.RawMessage `json:"sample"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sample, err := decodeSample(req.Sample)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"result": render.EvaluateAnswer(req.Expression, sample)})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": markup.Format(req.Text)})
}

type previewRequest struct {
	Document json.RawMessage   `json:"document"`
	Samples  []json.RawMessage `json:"samples"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := question.DecodeDocument(req.Document)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var samples []variables.Sample
	for i, raw := range req.Samples {
		sample, err := decodeSample(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("sample %d: %w", i+1, err))
			return
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		samples = []variables.Sample{variables.NewGenerator(variables.WithPasses(s.cfg.Passes)).Generate(doc.Variables)}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"questions": question.RenderAll(doc.Template, doc.TemplateData, samples),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document json.RawMessage `json:"document"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	problems := []string{}
	doc, err := question.DecodeDocument(req.Document)
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		for _, p := range question.Check(doc) {
			problems = append(problems, p.Error())
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"problems": problems})
}

type templateSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if !s.haveStore(w) {
		return
	}
	list, err := s.templates.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]templateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, templateSummary{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.haveStore(w) {
		return
	}
	t, err := s.templates.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	data, err := question.EncodeDocument(t.Document)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.haveStore(w) {
		return
	}
	var raw json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}
	doc, err := question.DecodeDocument(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	t := &store.Template{Name: chi.URLParam(r, "name"), Document: doc}
	if err := s.templates.Save(r.Context(), t); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, templateSummary{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.haveStore(w) {
		return
	}
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) haveStore(w http.ResponseWriter) bool {
	if s.templates == nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("template store is not configured"))
		return false
	}
	return true
}

func exportSamples(samples []variables.Sample) []map[string]any {
	out := make([]map[string]any, len(samples))
	for i, s := range samples {
		m := make(map[string]any, len(s))
		for k, v := range s {
			m[k] = question.JSONValue(v)
		}
		out[i] = m
	}
	return out
}

func decodeSample(raw json.RawMessage) (variables.Sample, error) {
	if len(raw) == 0 {
		return variables.Sample{}, nil
	}
	return question.DecodeSample(raw)
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respondError(w, http.StatusInternalServerError, err)
}

func respondError(w http.ResponseWriter, code int, err error) {
	respondJSON(w, code, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
