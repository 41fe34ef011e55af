package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmaker/internal/config"
	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/variables"
)

func fastRetry() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second, Retry: fastRetry()})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresSettings(t *testing.T) {
	_, err := New(Config{Token: "x"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "https://x"})
	assert.Error(t, err)
}

func TestBuildQuestion(t *testing.T) {
	t.Run("multiple choice", func(t *testing.T) {
		q := BuildQuestion(0, question.Rendered{
			Type: question.MultipleChoice, Text: "Pick", Options: []string{"a", "b", "c"}, Correct: 2,
		})
		assert.Equal(t, "Sample 1", q.Name)
		assert.Equal(t, TypeMultipleChoice, q.Type)
		require.Len(t, q.Answers, 3)
		assert.Equal(t, []int{0, 0, 100}, []int{q.Answers[0].Weight, q.Answers[1].Weight, q.Answers[2].Weight})
	})

	t.Run("true false", func(t *testing.T) {
		q := BuildQuestion(4, question.Rendered{Type: question.TrueFalse, Text: "Is it?", Correct: 1, Answer: "False"})
		assert.Equal(t, "Sample 5", q.Name)
		assert.Equal(t, TypeTrueFalse, q.Type)
		assert.Equal(t, []Answer{{ID: 0, Text: "True", Weight: 0}, {ID: 1, Text: "False", Weight: 100}}, q.Answers)
	})

	t.Run("open", func(t *testing.T) {
		q := BuildQuestion(1, question.Rendered{Type: question.Open, Text: "2+2?", Answer: "4", Correct: -1})
		assert.Equal(t, TypeShortAnswer, q.Type)
		assert.Equal(t, []Answer{{ID: 1, Text: "4", Weight: 100}}, q.Answers)
	})
}

func TestQuestion_Values(t *testing.T) {
	q := Question{Name: "Sample 1", Type: TypeTrueFalse, Text: "T?", Answers: []Answer{{ID: 0, Text: "True", Weight: 100}}}
	v := q.Values()
	assert.Equal(t, "Sample 1", v.Get("question[question_name]"))
	assert.Equal(t, "true_false", v.Get("question[question_type]"))
	assert.Equal(t, "T?", v.Get("question[question_text]"))
	assert.Equal(t, "True", v.Get("question[answers][0][answer_text]"))
	assert.Equal(t, "100", v.Get("question[answers][0][answer_weight]"))
}

func TestUpload(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
		auth  []string
		posts int32
	)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/assessment_question_banks/7":
			_, _ = w.Write([]byte(`{"id": 7}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/assessment_question_banks/7/questions":
			n := atomic.AddInt32(&posts, 1)
			assert.NoError(t, r.ParseForm())
			mu.Lock()
			texts = append(texts, r.PostForm.Get("question[question_text]"))
			mu.Unlock()
			if n == 2 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"errors":"bad"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id": 1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, h)

	samples := []variables.Sample{{"a": int64(1)}, {"a": int64(2)}, {"a": int64(3)}}
	var seen []int
	res := c.Upload(context.Background(), 7, "What is {{a}} * 2?", question.Spec{AnswerKey: "a * 2"}, samples, func(p Progress) {
		seen = append(seen, p.Index)
		assert.Equal(t, 3, p.Total)
	})

	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Sample 2: canvas: HTTP 400")
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, []string{"What is 1 * 2?", "What is 2 * 2?", "What is 3 * 2?"}, texts)
	for _, a := range auth {
		assert.Equal(t, "Bearer secret", a)
	}
}

func TestUpload_BankMissing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	samples := []variables.Sample{{}, {}, {}}
	res := c.Upload(context.Background(), 9, "q", question.Spec{}, samples, nil)
	assert.Equal(t, 0, res.Success)
	assert.Equal(t, 3, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "cannot access question bank 9")
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	require.NoError(t, c.BankExists(context.Background(), 1))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetry_PermanentNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	err := c.BankExists(context.Background(), 1)
	var st *ErrStatus
	require.True(t, errors.As(err, &st))
	assert.Equal(t, http.StatusUnauthorized, st.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	err := c.BankExists(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetry_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Token: "t", Retry: fastRetry()})
	require.NoError(t, err)
	err = c.BankExists(context.Background(), 1)
	var unavail *ErrUnavailable
	assert.True(t, errors.As(err, &unavail), "got %v", err)
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, fastRetry(), shouldRetry, func() error { return &ErrStatus{StatusCode: 503} })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateQuestion_ServerErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	err := c.CreateQuestion(context.Background(), 1, Question{Name: "Sample 1", Type: TypeShortAnswer})
	var st *ErrStatus
	require.True(t, errors.As(err, &st))
	assert.Equal(t, http.StatusBadGateway, st.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateQuestion_RateLimitRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	require.NoError(t, c.CreateQuestion(context.Background(), 1, Question{Name: "Sample 1", Type: TypeShortAnswer}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBackoff(t *testing.T) {
	cfg := config.RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}
	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{6, time.Second},
	}
	for _, tt := range tests {
		got := backoff(cfg, tt.attempt, errors.New("x"))
		lo := time.Duration(float64(tt.base) * 0.8)
		hi := time.Duration(float64(tt.base) * 1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: backoff %v outside [%v, %v]", tt.attempt, got, lo, hi)
		}
	}

	if got := backoff(cfg, 0, &ErrStatus{StatusCode: 429, RetryAfter: 3 * time.Second}); got != 3*time.Second {
		t.Errorf("Retry-After not honored: %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
}
