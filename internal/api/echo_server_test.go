package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func newTestEncoding(t *testing.T) *harmony.Encoding {
	t.Helper()
	enc, err := harmony.LoadEncoding(harmony.HarmonyGptOssBytes)
	if err != nil {
		t.Fatalf("load encoding: %v", err)
	}
	return enc
}

func newTestEcho(t *testing.T) (*echo.Echo, *harmony.Encoding) {
	t.Helper()
	enc := newTestEncoding(t)
	server := NewServer(enc)
	e := echo.New()
	server.Register(e)
	return e, enc
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

const userAssistantConversation = `{"conversation":{"messages":[
	{"role":"user","content":"What is 2 + 2?"},
	{"role":"assistant","channel":"analysis","content":"Simple sum."},
	{"role":"assistant","channel":"final","content":"4"}
]}}`

func TestRenderConversationEndpoint(t *testing.T) {
	t.Parallel()

	e, enc := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/render/conversation", userAssistantConversation)
	if rec.Code != http.StatusOK {
		t.Fatalf("render status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[RenderResponse](t, rec)
	if resp.Count != len(resp.Tokens) || resp.Count == 0 {
		t.Fatalf("unexpected count %d for %d tokens", resp.Count, len(resp.Tokens))
	}

	text, err := enc.DecodeUTF8(resp.Tokens)
	if err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	want := "<|start|>user<|message|>What is 2 + 2?<|end|>" +
		"<|start|>assistant<|channel|>analysis<|message|>Simple sum.<|end|>" +
		"<|start|>assistant<|channel|>final<|message|>4<|end|>"
	if text != want {
		t.Fatalf("rendered text:\n got %q\nwant %q", text, want)
	}
}

func TestRenderCompletionAndTraining(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	body := `{"include_text":true,"conversation":{"messages":[{"role":"user","content":"hi"}]}}`
	rec := doJSON(t, e, http.MethodPost, "/v1/render/completion", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("completion status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[RenderResponse](t, rec)
	if !strings.HasSuffix(resp.Text, "<|start|>assistant") {
		t.Fatalf("completion prompt should end with the assistant header: %q", resp.Text)
	}

	body = `{"include_text":true,"conversation":{"messages":[
		{"role":"user","content":"hi"},
		{"role":"assistant","channel":"final","content":"hello"}]}}`
	rec = doJSON(t, e, http.MethodPost, "/v1/render/training", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("training status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp = decodeBody[RenderResponse](t, rec)
	if !strings.HasSuffix(resp.Text, "hello<|return|>") {
		t.Fatalf("training render should end with <|return|>: %q", resp.Text)
	}
}

func TestRenderMessageEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	body := `{"include_text":true,"message":{"role":"assistant","channel":"commentary","recipient":"functions.f","content_type":"<|constrain|>json","content":"{}"}}`
	rec := doJSON(t, e, http.MethodPost, "/v1/render/message", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[RenderResponse](t, rec)
	want := "<|start|>assistant to=functions.f<|channel|>commentary <|constrain|>json<|message|>{}<|call|>"
	if resp.Text != want {
		t.Fatalf("got %q want %q", resp.Text, want)
	}
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", "/v1/render/conversation", `{`, http.StatusBadRequest, ""},
		{"unknown role", "/v1/render/conversation", `{"conversation":{"messages":[{"role":"narrator","content":"x"}]}}`, http.StatusBadRequest, ""},
		{"bad next role", "/v1/render/completion", `{"next_turn_role":"narrator","conversation":{"messages":[]}}`, http.StatusBadRequest, "unknown_role"},
		{"batch mode", "/v1/render/batch", `{"mode":"sideways","conversations":[{"messages":[]}]}`, http.StatusBadRequest, ""},
		{"empty batch", "/v1/render/batch", `{"conversations":[]}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status: got %d want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decodeBody[ErrorResponse](t, rec)
			if resp.Error.Type != "invalid_request_error" {
				t.Fatalf("unexpected error type %q", resp.Error.Type)
			}
			if tt.code != "" && resp.Error.Code != tt.code {
				t.Fatalf("error code: got %q want %q", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestRenderBatch(t *testing.T) {
	t.Parallel()

	e, enc := newTestEcho(t)
	convs := make([]harmony.Conversation, 20)
	for i := range convs {
		convs[i] = harmony.NewConversation(harmony.NewTextMessage(harmony.RoleUser, strings.Repeat("x", i+1)))
	}
	body := mustJSON(t, BatchRenderRequest{Mode: RenderModeCompletion, Conversations: convs})
	rec := doJSON(t, e, http.MethodPost, "/v1/render/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[BatchRenderResponse](t, rec)
	if len(resp.Results) != len(convs) {
		t.Fatalf("got %d results, want %d", len(resp.Results), len(convs))
	}
	for i, r := range resp.Results {
		want, err := enc.RenderConversationForCompletion(convs[i], harmony.RoleAssistant, nil)
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if mustJSON(t, r.Tokens) != mustJSON(t, want) {
			t.Fatalf("result %d out of order or wrong", i)
		}
	}

	convs[7] = harmony.NewConversation(harmony.NewTextMessage("narrator", "x"))
	body = mustJSON(t, BatchRenderRequest{Conversations: convs})
	rec = doJSON(t, e, http.MethodPost, "/v1/render/batch", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[ErrorResponse](t, rec).Error.Param; got != "conversations[7]" {
		t.Fatalf("error param: got %q", got)
	}
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	e, enc := newTestEcho(t)
	tokens := enc.EncodeWithSpecial("<|channel|>analysis<|message|>Think.<|end|>"+
		"<|start|>assistant<|channel|>final<|message|>Done.<|return|>", enc.SpecialTokens())

	body := mustJSON(t, map[string]any{"tokens": tokens, "role": "assistant"})
	rec := doJSON(t, e, http.MethodPost, "/v1/parse", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[ParseResponse](t, rec)
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(resp.Messages))
	}
	if resp.Messages[0].Channel != "analysis" || resp.Messages[1].Text() != "Done." {
		t.Fatalf("unexpected messages: %+v", resp.Messages)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/parse?format=openai", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("openai status: got %d body=%s", rec.Code, rec.Body.String())
	}
	oa := decodeBody[OpenAIParseResponse](t, rec)
	if len(oa.Choices) != 1 || oa.Choices[0].Message.Content != "Done." || oa.Choices[0].Message.ReasoningContent != "Think." {
		t.Fatalf("unexpected openai choice: %s", rec.Body.String())
	}

	bad := mustJSON(t, map[string]any{"tokens": enc.Encode("stray text")})
	rec = doJSON(t, e, http.MethodPost, "/v1/parse", bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec).Error.Code; got != "grammar_error" {
		t.Fatalf("error code: got %q", got)
	}
}

func TestEncodeDecodeEndpoints(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/encode", `{"text":"hi<|end|>","allowed_special":["all"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("encode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	enc := decodeBody[TokensResponse](t, rec)
	if enc.Count == 0 || enc.Tokens[len(enc.Tokens)-1] != 200007 {
		t.Fatalf("expected <|end|> as the last token: %v", enc.Tokens)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/decode", mustJSON(t, DecodeRequest{Tokens: enc.Tokens}))
	if rec.Code != http.StatusOK {
		t.Fatalf("decode status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[DecodeResponse](t, rec).Text; got != "hi<|end|>" {
		t.Fatalf("decoded %q", got)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/decode", `{"tokens":[230]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a truncated UTF-8 sequence, got %d", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec).Error.Code; got != "encoding_error" {
		t.Fatalf("error code: got %q", got)
	}
}

func TestTokenEndpoints(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/tokens/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	stop := decodeBody[StopTokensResponse](t, rec)
	if mustJSON(t, stop.Stop) != "[200002,200007,200012]" {
		t.Fatalf("stop tokens: %v", stop.Stop)
	}
	if mustJSON(t, stop.AssistantActions) != "[200002,200012]" {
		t.Fatalf("assistant action stop tokens: %v", stop.AssistantActions)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/tokens/special", "")
	special := decodeBody[SpecialTokensResponse](t, rec)
	found := false
	for i, tok := range special.Data {
		if i > 0 && special.Data[i-1].ID >= tok.ID {
			t.Fatalf("special tokens not sorted at %d", i)
		}
		if tok.Text == "<|start|>" && tok.ID == 200006 {
			found = true
		}
	}
	if !found {
		t.Fatalf("<|start|> missing from special tokens")
	}
}

func TestToolNamespaceEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/tools/browser", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	ns := decodeBody[harmony.ToolNamespaceConfig](t, rec)
	if ns.Name != "browser" || len(ns.Tools) != 3 {
		t.Fatalf("unexpected namespace: %+v", ns)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/tools/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
