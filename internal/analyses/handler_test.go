package analyses

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/shared/server/middleware"
)

func setupAnalysisRouter(t *testing.T, p provider.Provider) (*gin.Engine, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := NewRegistry(p, time.Minute, nil)
	t.Cleanup(registry.Close)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Session(false))
	api := router.Group("/api/v1")
	h := NewHandler(registry)
	h.Heartbeat = 50 * time.Millisecond
	h.RegisterRoutes(api)
	return router, registry
}

func doJSON(t *testing.T, router http.Handler, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-Id", sessionID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type stateBody struct {
	Status     string `json:"status"`
	AnalysisID string `json:"analysisId"`
	BlogURL    string `json:"blogUrl"`
	Result     *struct {
		PersonalityCode string `json:"mbti"`
	} `json:"result"`
	Error *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var st stateBody
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return body
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))

	cases := []struct {
		body any
		code string
	}{
		{body: map[string]string{"blogUrl": "   "}, code: ErrorCodeEmptyInput},
		{body: nil, code: ErrorCodeEmptyInput},
		{body: map[string]string{"blogUrl": "blog.example.com"}, code: ErrorCodeInvalidURL},
		{body: map[string]string{"blogUrl": "ftp://blog.example.com"}, code: ErrorCodeInvalidURL},
	}
	for _, tc := range cases {
		resp := doJSON(t, router, http.MethodPost, "/api/v1/analyses", "s1", tc.body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", tc.body, resp.Code)
		}
		if got := decodeError(t, resp).Error.Code; got != tc.code {
			t.Fatalf("expected code %s, got %s", tc.code, got)
		}
	}

	if st := registry.Get("s1").State(); st.Status() != StatusIdle {
		t.Fatalf("rejected input must not change state, got %s", st.Status())
	}
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	router, _ := setupAnalysisRouter(t, provider.NewMock(0))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader("{not json"))
	req.Header.Set("X-Session-Id", "s1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeError(t, resp).Error.Code; got != "bad_request" {
		t.Fatalf("expected bad_request, got %s", got)
	}
}

func TestSubmitAndFetchReport(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))

	resp := doJSON(t, router, http.MethodPost, "/api/v1/analyses", "s1", map[string]string{
		"blogUrl": " https://blog.example.com ",
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	created := decodeState(t, resp)
	if created.Status != string(StatusInFlight) || created.AnalysisID == "" {
		t.Fatalf("unexpected submit response: %+v", created)
	}
	if created.BlogURL != "https://blog.example.com" {
		t.Fatalf("expected trimmed url, got %q", created.BlogURL)
	}

	awaitTerminal(t, registry.Get("s1"))

	resp = doJSON(t, router, http.MethodGet, "/api/v1/analyses/current", "s1", nil)
	current := decodeState(t, resp)
	if current.Status != string(StatusSucceeded) || current.AnalysisID != created.AnalysisID {
		t.Fatalf("unexpected current state: %+v", current)
	}
	if current.Result == nil || current.Result.PersonalityCode != "ENFP" {
		t.Fatalf("expected ENFP result, got %+v", current.Result)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/analyses/current/report", "s1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var view struct {
		Leanings []struct {
			Axis   string `json:"axis"`
			Letter string `json:"letter"`
		} `json:"axisLeanings"`
		Ratios []struct {
			Category string `json:"category"`
			Label    string `json:"label"`
		} `json:"contentRatios"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	letters := ""
	for _, l := range view.Leanings {
		letters += l.Letter
	}
	if letters != "ENFP" {
		t.Fatalf("expected leanings ENFP, got %q", letters)
	}
	if len(view.Ratios) != 4 || view.Ratios[1].Category != "essay" || view.Ratios[1].Label != "45%" {
		t.Fatalf("unexpected ratios: %+v", view.Ratios)
	}
}

func TestReportNotReadyWhileIdle(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))

	resp := doJSON(t, router, http.MethodGet, "/api/v1/analyses/current/report", "s1", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if got := decodeError(t, resp).Error.Code; got != "not_ready" {
		t.Fatalf("expected not_ready, got %s", got)
	}
	if n := registry.Len(); n != 0 {
		t.Fatalf("reading a report must not create a session, got %d", n)
	}
}

func TestCurrentForUnknownSessionIsIdle(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))

	for i := 0; i < 3; i++ {
		resp := doJSON(t, router, http.MethodGet, "/api/v1/analyses/current", "", nil)
		if st := decodeState(t, resp); st.Status != string(StatusIdle) {
			t.Fatalf("expected idle, got %s", st.Status)
		}
	}
	if n := registry.Len(); n != 0 {
		t.Fatalf("polling must not create sessions, got %d", n)
	}
}

func TestResetReturnsIdle(t *testing.T) {
	p := newGatedProvider()
	router, registry := setupAnalysisRouter(t, p)

	doJSON(t, router, http.MethodPost, "/api/v1/analyses", "s1", map[string]string{"blogUrl": "https://blog.example.com"})
	p.waitStarted(t, "https://blog.example.com")

	resp := doJSON(t, router, http.MethodDelete, "/api/v1/analyses/current", "s1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if st := decodeState(t, resp); st.Status != string(StatusIdle) || st.AnalysisID != "" {
		t.Fatalf("expected idle, got %+v", st)
	}

	p.release("https://blog.example.com", provider.SampleResult(), nil)
	registry.Get("s1").Wait()
	if st := registry.Get("s1").State(); st.Status() != StatusIdle {
		t.Fatalf("expected idle after late completion, got %s", st.Status())
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))

	doJSON(t, router, http.MethodPost, "/api/v1/analyses", "s1", map[string]string{"blogUrl": "https://blog.example.com"})
	awaitTerminal(t, registry.Get("s1"))

	resp := doJSON(t, router, http.MethodGet, "/api/v1/analyses/current", "s2", nil)
	if st := decodeState(t, resp); st.Status != string(StatusIdle) {
		t.Fatalf("expected s2 idle, got %s", st.Status)
	}
}

func TestFailedStateExposesErrorKind(t *testing.T) {
	failing := newGatedProvider()
	router, registry := setupAnalysisRouter(t, failing)

	doJSON(t, router, http.MethodPost, "/api/v1/analyses", "s1", map[string]string{"blogUrl": "https://blog.example.com"})
	failing.waitStarted(t, "https://blog.example.com")
	failing.release("https://blog.example.com", provider.SampleResult(), errors.New("analysis failed"))
	awaitTerminal(t, registry.Get("s1"))

	resp := doJSON(t, router, http.MethodGet, "/api/v1/analyses/current", "s1", nil)
	st := decodeState(t, resp)
	if st.Status != string(StatusFailed) || st.Error == nil || st.Error.Kind != string(ErrorKindProvider) {
		t.Fatalf("unexpected failed state: %+v", st)
	}
	if st.Result != nil {
		t.Fatalf("failed state must not expose a result")
	}
}

func TestEventsStreamTransitions(t *testing.T) {
	p := newGatedProvider()
	router, _ := setupAnalysisRouter(t, p)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/analyses/current/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Session-Id", "s1")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}

	events := make(chan string, 32)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: ") && event == "state":
				var st stateBody
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &st); err == nil {
					events <- st.Status
				}
			}
		}
	}()

	next := func(want string) {
		t.Helper()
		for {
			select {
			case got, ok := <-events:
				if !ok {
					t.Fatalf("stream closed before %s", want)
				}
				if got == want {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %s", want)
			}
		}
	}

	next(string(StatusIdle))

	body := strings.NewReader(`{"blogUrl":"https://blog.example.com"}`)
	post, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/v1/analyses", body)
	if err != nil {
		t.Fatalf("new post: %v", err)
	}
	post.Header.Set("X-Session-Id", "s1")
	post.Header.Set("Content-Type", "application/json")
	postResp, err := srv.Client().Do(post)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	postResp.Body.Close()

	next(string(StatusInFlight))
	p.waitStarted(t, "https://blog.example.com")
	p.release("https://blog.example.com", provider.SampleResult(), nil)
	next(string(StatusSucceeded))
}

func TestRegistryCloseEndsEventStreams(t *testing.T) {
	router, registry := setupAnalysisRouter(t, provider.NewMock(0))
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/analyses/current/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Session-Id", "s1")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(io.Discard, resp.Body)
	}()

	registry.Close()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("stream still open after registry close")
	}
}
