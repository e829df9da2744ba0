package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()

	RespondError(resp, http.StatusConflict, "busy")

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body["error"] != "busy" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestDecodeJSONAllowsEmptyBody(t *testing.T) {
	var payload struct {
		Locale string `json:"locale"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := DecodeJSON(req, &payload); err != nil {
		t.Fatalf("expected empty body to decode, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"locale":"ja"}`))
	if err := DecodeJSON(req, &payload); err != nil || payload.Locale != "ja" {
		t.Fatalf("unexpected decode result %+v %v", payload, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := DecodeJSON(req, &payload); err == nil {
		t.Fatalf("expected malformed body to fail")
	}
}
