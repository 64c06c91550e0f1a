package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSimulatedWithoutAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	sender := NewResendSender("", "Hoogi <noreply@ihoogi.com>", SetResendBaseURL(server.URL))

	result, err := sender.SendEmail(context.Background(), EmailMessage{
		To:      "dana@example.com",
		Subject: "hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.True(t, result.Simulated)
	assert.Equal(t, "resend", result.Provider)
	assert.Equal(t, "dana@example.com", result.Args["to"])
	assert.Equal(t, "hello", result.Args["subject"])
	assert.Zero(t, atomic.LoadInt32(&calls), "simulated mode must not touch the network")
}

func TestResendSendEmail(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer server.Close()

	sender := NewResendSender("re_test_key", "Hoogi <noreply@ihoogi.com>", SetResendBaseURL(server.URL))

	result, err := sender.SendEmail(context.Background(), EmailMessage{
		To:      "dana@example.com",
		Subject: "subject",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		ReplyTo: "owner@acme.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "Hoogi <noreply@ihoogi.com>", gotPayload["from"])
	assert.Equal(t, "dana@example.com", gotPayload["to"])
	assert.Equal(t, "subject", gotPayload["subject"])
	assert.Equal(t, "<p>hi</p>", gotPayload["html"])
	assert.Equal(t, "hi", gotPayload["text"])
	assert.Equal(t, "owner@acme.com", gotPayload["reply_to"])

	assert.False(t, result.Simulated)
	assert.Equal(t, "em_123", result.ID)
}

func TestResendOmitsEmptyOptionalFields(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer server.Close()

	sender := NewResendSender("re_test_key", "noreply@ihoogi.com", SetResendBaseURL(server.URL))

	_, err := sender.SendEmail(context.Background(), EmailMessage{To: "dana@example.com", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.NotContains(t, gotPayload, "text")
	assert.NotContains(t, gotPayload, "reply_to")
}

func TestResendErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	sender := NewResendSender("re_test_key", "broken", SetResendBaseURL(server.URL))

	_, err := sender.SendEmail(context.Background(), EmailMessage{To: "dana@example.com"})
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "resend", provErr.Provider)
	assert.Equal(t, http.StatusUnprocessableEntity, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "invalid from address")
	assert.Contains(t, err.Error(), "422")
}
