package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSimulatedWhenCredentialsMissing(t *testing.T) {
	cases := []struct {
		name    string
		token   string
		phoneID string
	}{
		{"no token", "", "123456"},
		{"no phone id", "token", ""},
		{"nothing", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := NewWhatsAppSender(tc.token, tc.phoneID)

			result, err := sender.SendWhatsApp(context.Background(), "+972501234567", "שלום")
			require.NoError(t, err)

			assert.True(t, result.Simulated)
			assert.Equal(t, "whatsapp", result.Provider)
			assert.Equal(t, "+972501234567", result.Args["to"])
			assert.Equal(t, "שלום", result.Args["body"])
		})
	}
}

func TestWhatsAppSendMessage(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc"}]}`))
	}))
	defer server.Close()

	sender := NewWhatsAppSender("graph_token", "123456", SetWhatsAppBaseURL(server.URL))

	result, err := sender.SendWhatsApp(context.Background(), "+972501234567", "שלום Dana")
	require.NoError(t, err)

	assert.Equal(t, "Bearer graph_token", gotAuth)
	assert.Equal(t, "whatsapp", gotPayload["messaging_product"])
	assert.Equal(t, "+972501234567", gotPayload["to"])
	assert.Equal(t, "text", gotPayload["type"])
	text, ok := gotPayload["text"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "שלום Dana", text["body"])

	assert.False(t, result.Simulated)
	assert.Equal(t, "wamid.abc", result.ID)
}

func TestWhatsAppErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))
	defer server.Close()

	sender := NewWhatsAppSender("graph_token", "123456", SetWhatsAppBaseURL(server.URL))

	_, err := sender.SendWhatsApp(context.Background(), "bad", "hi")
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "whatsapp", provErr.Provider)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "invalid recipient")
}
