package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afabl/decision-matrix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendClient_Send(t *testing.T) {
	var got struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	c, err := NewResendClient(config.Mail{
		ResendAPIKey:   "re_test",
		ResendEndpoint: srv.URL,
		From:           "noreply@example.com",
	})
	require.NoError(t, err)

	err = c.Send(context.Background(), Message{To: "d@x.com", Subject: "Hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, []string{"d@x.com"}, got.To)
	assert.Equal(t, "Hi", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTML)
}

func TestResendClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"statusCode":401,"name":"validation_error","message":"invalid api key"}`))
	}))
	defer srv.Close()

	c, err := NewResendClient(config.Mail{ResendAPIKey: "bad", ResendEndpoint: srv.URL})
	require.NoError(t, err)

	err = c.Send(context.Background(), Message{To: "d@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestResendClient_CancelledContext(t *testing.T) {
	c, err := NewResendClient(config.Mail{ResendEndpoint: "http://127.0.0.1:1", RatePerSecond: 0.001})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, c.Send(ctx, Message{To: "d@x.com"}))
}

func TestConfirmationMessage(t *testing.T) {
	msg, err := ConfirmationMessage("d@x.com", "https://api.example.com/confirm-email/abc123")
	require.NoError(t, err)

	assert.Equal(t, "d@x.com", msg.To)
	assert.Equal(t, ConfirmationSubject, msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://api.example.com/confirm-email/abc123"`)
}

func TestNew(t *testing.T) {
	s, err := New(config.Mail{Provider: "log"})
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, s)

	s, err = New(config.Mail{Provider: "resend", ResendAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ResendClient{}, s)

	_, err = New(config.Mail{Provider: "pigeon"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
