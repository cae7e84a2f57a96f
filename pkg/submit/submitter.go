package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kurlclub/kurlclub-forms/pkg/payload"
)

// FallbackMessage is shown when the backend returns neither structured error
// data nor readable text.
const FallbackMessage = "Something went wrong. Please check your information and try again."

const defaultSuccessMessage = "Member created successfully!"

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// SuccessInfo describes an accepted registration.
type SuccessInfo struct {
	Message   string
	RequestID string
}

// Error is a typed submission failure carrying the most readable message the
// response offered. The session returns to editing with values intact so the
// user can retry; nothing is retried automatically.
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submit: %s (status %d)", e.Message, e.StatusCode)
	}
	return "submit: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithHTTPClient replaces the default client. The caller controls timeouts
// either here or per call through the context.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Submitter) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Submitter performs the single registration call against the member API. It
// never retries: a failure surfaces as *Error and the decision to resubmit
// stays with the user.
type Submitter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New constructs a Submitter for the API base URL, e.g. "https://api.example.com".
func New(baseURL string, options ...Option) (*Submitter, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("submit: base URL is required")
	}
	s := &Submitter{
		baseURL: trimmed,
		client:  http.DefaultClient,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit posts the payload to the gym's onboarding endpoint and interprets
// the response. Cancellation via ctx aborts the request; the caller is
// responsible for discarding results that resolve after abandonment.
func (s *Submitter) Submit(ctx context.Context, gymID int64, p *payload.Payload) (*SuccessInfo, error) {
	if p == nil {
		return nil, errors.New("submit: payload is required")
	}

	requestID := uuid.NewString()
	contentType, body, err := p.Encode()
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/Member/onboarding/%d", s.baseURL, gymID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-Id", requestID)

	s.logger.DebugContext(ctx, "submitting registration",
		"gym_id", gymID, "request_id", requestID, "bytes", len(body))

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "registration transport failure",
			"gym_id", gymID, "request_id", requestID, "error", err)
		return nil, &Error{Message: FallbackMessage, RequestID: requestID, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(io.LimitReader(resp.Body, maxErrorBody))
		s.logger.ErrorContext(ctx, "registration rejected",
			"gym_id", gymID, "request_id", requestID, "status", resp.StatusCode, "message", msg)
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg, RequestID: requestID}
	}

	info := &SuccessInfo{Message: defaultSuccessMessage, RequestID: requestID}
	var envelope struct {
		Message string `json:"message"`
	}
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &envelope) == nil && strings.TrimSpace(envelope.Message) != "" {
			info.Message = strings.TrimSpace(envelope.Message)
		}
	}

	s.logger.InfoContext(ctx, "registration accepted",
		"gym_id", gymID, "request_id", requestID)
	return info, nil
}

// extractMessage pulls the most readable error text from a response body:
// a structured {"message": ...} payload, else the raw text, else the generic
// fallback.
func extractMessage(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil {
		return FallbackMessage
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return FallbackMessage
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil && strings.TrimSpace(envelope.Message) != "" {
		return strings.TrimSpace(envelope.Message)
	}
	return text
}
