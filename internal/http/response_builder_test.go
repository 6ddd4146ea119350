package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"salesdash/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusOK).
		Header("X-Test", "yes").
		Body(5).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "5\n" {
		t.Errorf("Body = %q, want %q", got, "5\n")
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Test"); got != "yes" {
		t.Errorf("X-Test = %q", got)
	}
}

func TestJSONResponseBuilder_BareValues(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"string", "Outplay", `"Outplay"` + "\n"},
		{"object", map[string]float64{"Marketing": 100}, `{"Marketing":100}` + "\n"},
		{"array", [3]float64{0, 10.5, 0}, `[0,10.5,0]` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			OK(tt.body).Write(w)
			if got := w.Body.String(); got != tt.want {
				t.Errorf("Body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		message string
	}{
		{"bad request", BadRequestError(core.MsgInvalidItemBy), http.StatusBadRequest, core.MsgInvalidItemBy},
		{"internal", InternalServerError(), http.StatusInternalServerError, core.MsgInternal},
		{"not found", NotFoundError(), http.StatusNotFound, "Not found."},
		{"rate limited", TooManyRequestsError(), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestJSONResponseBuilder_UnencodableBody(t *testing.T) {
	w := httptest.NewRecorder()
	OK(math.NaN()).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status code = %d, want 500", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != core.MsgInternal {
		t.Errorf("body = %q, err = %v", w.Body.String(), err)
	}
}
