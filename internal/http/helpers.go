package http

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"salesdash/internal/core"
)

// maxLoggedParamLen caps how much of a client supplied value reaches the logs.
const maxLoggedParamLen = 128

// sanitizeInput removes control characters and truncates s for logging.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLoggedParamLen {
		s = s[:maxLoggedParamLen]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return s
}

// statusForKind maps a query error kind onto an HTTP status.
func statusForKind(kind core.ErrorKind) int {
	if kind.ClientVisible() {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
