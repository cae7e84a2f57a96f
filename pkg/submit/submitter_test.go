package submit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurlclub/kurlclub-forms/pkg/payload"
	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

func minimalPayload(t *testing.T) *payload.Payload {
	t.Helper()
	s, err := schema.Define(
		schema.FieldDescriptor{Key: "name", Kind: schema.KindText, WireName: "Name", Required: true},
	)
	require.NoError(t, err)
	p, err := payload.Build(s, map[string]value.Value{"name": value.String("John")})
	require.NoError(t, err)
	return p
}

func TestSubmit_Success(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/Member/onboarding/42", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "John", r.FormValue("Name"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "message": "Welcome aboard"}`))
	}))
	defer server.Close()

	submitter, err := New(server.URL)
	require.NoError(t, err)

	info, err := submitter.Submit(context.Background(), 42, minimalPayload(t))
	require.NoError(t, err)
	require.Equal(t, "Welcome aboard", info.Message)
	require.NotEmpty(t, info.RequestID)
	require.Equal(t, int32(1), calls.Load(), "exactly one network call, no retries")
}

func TestSubmit_StructuredErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Phone number already registered"}`))
	}))
	defer server.Close()

	submitter, err := New(server.URL)
	require.NoError(t, err)

	_, err = submitter.Submit(context.Background(), 42, minimalPayload(t))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, http.StatusBadRequest, serr.StatusCode)
	require.Equal(t, "Phone number already registered", serr.Message)
}

func TestSubmit_RawTextErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream database unavailable"))
	}))
	defer server.Close()

	submitter, err := New(server.URL)
	require.NoError(t, err)

	_, err = submitter.Submit(context.Background(), 42, minimalPayload(t))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "upstream database unavailable", serr.Message)
}

func TestSubmit_EmptyBodyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	submitter, err := New(server.URL)
	require.NoError(t, err)

	_, err = submitter.Submit(context.Background(), 42, minimalPayload(t))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, FallbackMessage, serr.Message)
}

func TestSubmit_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	submitter, err := New(server.URL)
	require.NoError(t, err)

	_, err = submitter.Submit(context.Background(), 42, minimalPayload(t))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, FallbackMessage, serr.Message)
	require.NotNil(t, serr.Unwrap())
}

func TestSubmit_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	submitter, err := New(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = submitter.Submit(ctx, 42, minimalPayload(t))
	require.Error(t, err)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}
