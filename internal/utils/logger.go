package utils

import (
	"log"
	"strings"
)

const maxLogMessage = 512

// LogEvent prints one line per event: module, action, request id and a
// short message. Backend error bodies are folded onto one line and cut.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	if req == "" {
		req = "-"
	}
	msg := NormalizeSpace(message)
	if len(msg) > maxLogMessage {
		msg = msg[:maxLogMessage] + "..."
	}
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, msg)
}
