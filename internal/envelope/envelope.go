// Package envelope encodes requests to and decodes responses from the
// transactional backend. Every call is wrapped as {"RequestData": "<json>"}
// and every answer arrives as {IsSuccess, Message, ResponseData}.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tripconsole/internal/domain"

	"github.com/google/uuid"
)

// Context identifies the caller and routes the request. MessageType is the
// backend's method name and must match exactly.
type Context struct {
	MessageID   string `json:"MessageID"`
	MessageType string `json:"MessageType"`
	UserID      string `json:"UserID"`
	OUID        int    `json:"OUID"`
	Role        string `json:"Role"`
}

type Request struct {
	Context          Context            `json:"context"`
	SearchCriteria   any                `json:"SearchCriteria,omitempty"`
	RequestPayload   any                `json:"RequestPayload,omitempty"`
	AdditionalFilter []domain.Filter    `json:"AdditionalFilter,omitempty"`
	Pagination       *domain.Pagination `json:"Pagination,omitempty"`
}

// New starts a request with a fresh MessageID.
func New(messageType string, rc domain.RequestContext) Request {
	return Request{Context: Context{
		MessageID:   uuid.NewString(),
		MessageType: messageType,
		UserID:      rc.UserID,
		OUID:        rc.OUID,
		Role:        rc.Role,
	}}
}

func (r Request) WithCriteria(c any) Request {
	r.SearchCriteria = c
	return r
}

func (r Request) WithPayload(p any) Request {
	r.RequestPayload = p
	return r
}

func (r Request) WithFilters(f []domain.Filter) Request {
	r.AdditionalFilter = f
	return r
}

func (r Request) WithPage(p domain.Pagination) Request {
	r.Pagination = &p
	return r
}

// Marshal encodes v without HTML escaping so raw pass-through JSON keeps its
// bytes.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode produces the outer body sent over the wire.
func Encode(r Request) ([]byte, error) {
	if strings.TrimSpace(r.Context.MessageType) == "" {
		return nil, domain.InternalError{Msg: "envelope: MessageType required"}
	}
	inner, err := Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode request: %w", err)
	}
	return Marshal(struct {
		RequestData string `json:"RequestData"`
	}{RequestData: string(inner)})
}

// DecodeRequest reverses Encode; fake backends in tests use it.
func DecodeRequest(body []byte) (Request, json.RawMessage, error) {
	var outer struct {
		RequestData string `json:"RequestData"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return Request{}, nil, fmt.Errorf("envelope: decode outer: %w", err)
	}
	var shape struct {
		Context          Context            `json:"context"`
		SearchCriteria   json.RawMessage    `json:"SearchCriteria"`
		RequestPayload   json.RawMessage    `json:"RequestPayload"`
		AdditionalFilter []domain.Filter    `json:"AdditionalFilter"`
		Pagination       *domain.Pagination `json:"Pagination"`
	}
	if err := json.Unmarshal([]byte(outer.RequestData), &shape); err != nil {
		return Request{}, nil, fmt.Errorf("envelope: decode inner: %w", err)
	}
	req := Request{
		Context:          shape.Context,
		AdditionalFilter: shape.AdditionalFilter,
		Pagination:       shape.Pagination,
	}
	if len(shape.SearchCriteria) > 0 {
		req.SearchCriteria = shape.SearchCriteria
	}
	return req, shape.RequestPayload, nil
}

// Fault is the error object the backend embeds in ResponseData.
type Fault struct {
	Code    Code   `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// Code accepts errorCode as a JSON string or number.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// Result is a decoded response.
type Result struct {
	Success bool
	Message string
	Data    json.RawMessage
	Fault   *Fault
}

// Decode parses a response body. ResponseData may be a JSON string holding
// JSON or inline JSON.
func Decode(body []byte) (Result, error) {
	var outer struct {
		IsSuccess    flexBool        `json:"IsSuccess"`
		Message      string          `json:"Message"`
		ResponseData json.RawMessage `json:"ResponseData"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return Result{}, fmt.Errorf("envelope: decode response: %w", err)
	}
	res := Result{Success: bool(outer.IsSuccess), Message: strings.TrimSpace(outer.Message)}

	data := bytes.TrimSpace(outer.ResponseData)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Result{}, fmt.Errorf("envelope: decode ResponseData: %w", err)
		}
		data = bytes.TrimSpace([]byte(s))
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return res, nil
	}
	res.Data = data

	if data[0] == '{' {
		var probe struct {
			Error *Fault `json:"error"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return Result{}, fmt.Errorf("envelope: decode ResponseData: %w", err)
		}
		res.Fault = probe.Error
	}
	return res, nil
}

// Err applies the dual success rule: IsSuccess must be true and the payload
// must not carry an error object.
func (r Result) Err() error {
	if r.Fault != nil {
		msg := strings.TrimSpace(r.Fault.Message)
		if msg == "" {
			msg = r.Message
		}
		return domain.BusinessError{Code: string(r.Fault.Code), Message: msg}
	}
	if !r.Success {
		return domain.BusinessError{Message: r.Message}
	}
	return nil
}

// Into decodes the payload into dst. An empty payload leaves dst untouched.
func (r Result) Into(dst any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return fmt.Errorf("envelope: decode payload: %w", err)
	}
	return nil
}

// MarshalResponse builds a response body with ResponseData string-encoded,
// the way the backend sends it.
func MarshalResponse(success bool, message string, data any) ([]byte, error) {
	inner := []byte("null")
	if data != nil {
		var err error
		if inner, err = Marshal(data); err != nil {
			return nil, err
		}
	}
	return Marshal(struct {
		IsSuccess    bool   `json:"IsSuccess"`
		Message      string `json:"Message,omitempty"`
		ResponseData string `json:"ResponseData"`
	}{success, message, string(inner)})
}

// flexBool accepts true/false, "true"/"false" and 0/1.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("IsSuccess: %w", err)
	}
	*f = flexBool(v)
	return nil
}
