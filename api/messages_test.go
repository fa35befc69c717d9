package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/modgate/domain"
	"github.com/xiaot623/modgate/monitor"
	"github.com/xiaot623/modgate/pipeline"
	"github.com/xiaot623/modgate/session"
)

type stubSubmitter struct {
	result  pipeline.Result
	gotSID  string
	gotUID  string
	gotText string
}

func (s *stubSubmitter) Submit(ctx context.Context, sessionID, userID, text string) pipeline.Result {
	s.gotSID = sessionID
	s.gotUID = userID
	s.gotText = text
	return s.result
}

func newTestHandler(sub Submitter) (*Handler, *session.Store) {
	store := session.NewStore("sys")
	mon := monitor.New(10, nil, nil)
	return NewHandler(sub, store, mon, nil, nil), store
}

func TestSubmitMessage(t *testing.T) {
	e := echo.New()
	sub := &stubSubmitter{result: pipeline.Result{Outcome: domain.OutcomeAnswered, Reply: "olá"}}
	h, _ := newTestHandler(sub)

	body := `{"user_id":"u1","content":"Qual a taxa Selic?"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("s1")

	if err := h.SubmitMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if sub.gotSID != "s1" || sub.gotUID != "u1" || sub.gotText != "Qual a taxa Selic?" {
		t.Fatalf("unexpected pipeline args: %q %q %q", sub.gotSID, sub.gotUID, sub.gotText)
	}

	var resp pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Outcome != domain.OutcomeAnswered || resp.Reply != "olá" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitMessageRateLimited(t *testing.T) {
	e := echo.New()
	sub := &stubSubmitter{result: pipeline.Result{Outcome: domain.OutcomeRateLimited, Reply: "aguarde"}}
	h, _ := newTestHandler(sub)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/s1/messages", strings.NewReader(`{"content":"oi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("s1")

	if err := h.SubmitMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if sub.gotUID != "anonymous" {
		t.Fatalf("expected anonymous default, got %q", sub.gotUID)
	}
}

func TestGetMessages(t *testing.T) {
	e := echo.New()
	h, store := newTestHandler(&stubSubmitter{})

	sess := store.GetOrCreate("s1", "u1")
	if err := sess.Append(domain.RoleUser, "pergunta", time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("s1")

	if err := h.GetMessages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		SessionID string        `json:"session_id"`
		Turns     []domain.Turn `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Turns) != 2 || resp.Turns[0].Role != domain.RoleSystem || resp.Turns[1].Role != domain.RoleUser {
		t.Fatalf("unexpected turns: %+v", resp.Turns)
	}
}

func TestGetMessagesNotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("missing")

	if err := h.GetMessages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMonitor(t *testing.T) {
	e := echo.New()
	sub := &stubSubmitter{}
	store := session.NewStore("sys")
	mon := monitor.New(10, nil, nil)
	h := NewHandler(sub, store, mon, nil, nil)

	mon.Error("BLOQUEIO: Violência")
	mon.Success("SUCESSO: resposta gerada")

	req := httptest.NewRequest(http.MethodGet, "/v1/monitor", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetMonitor(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Entries []monitor.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Message != "SUCESSO: resposta gerada" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}
