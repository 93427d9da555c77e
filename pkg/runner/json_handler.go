package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONMessage is one line written by JSONHandler.
type JSONMessage struct {
	Response string `json:"response,omitempty"`
	System   string `json:"system,omitempty"`
}

// JSONHandler implements the IOHandler interface for JSON-Lines communication.
// Input lines may be {"message": "..."}, a JSON string, or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: enc,
	}
}

func (h *JSONHandler) Output(_ context.Context, text string) error {
	return h.Encoder.Encode(JSONMessage{Response: text})
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(JSONMessage{System: msg})
}

func (h *JSONHandler) Input(_ context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var obj struct {
		Message string `json:"message"`
	}
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &obj) == nil {
		text = obj.Message
	} else {
		var s string
		if json.Unmarshal([]byte(text), &s) == nil {
			text = s
		}
	}
	return SanitizeInput(text)
}
