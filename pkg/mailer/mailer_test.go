package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSendGridNotConfigured(t *testing.T) {
	sender := NewSendGrid(Config{FromAddress: "noreply@example.com"}, zerolog.Nop())
	require.False(t, sender.Configured())

	err := sender.Send(context.Background(), Message{To: mail.Address{Address: "a@example.com"}, Subject: "hi"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendGridPostsMessage(t *testing.T) {
	var body map[string]interface{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, sendEndpoint, r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSendGrid(Config{APIKey: "SG.test", FromAddress: "noreply@example.com", FromName: "Course Market", Host: server.URL}, zerolog.Nop())
	require.True(t, sender.Configured())

	err := sender.Send(context.Background(), Message{
		To:      mail.Address{Name: "Ana", Address: "ana@example.com"},
		Subject: "Your course was approved",
		Text:    "congrats",
		HTML:    "<p>congrats</p>",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer SG.test", auth)

	personalizations := body["personalizations"].([]interface{})
	first := personalizations[0].(map[string]interface{})
	require.Equal(t, "[Course Market] Your course was approved", first["subject"])
}

func TestSendGridProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewSendGrid(Config{APIKey: "SG.bad", FromAddress: "noreply@example.com", Host: server.URL}, zerolog.Nop())
	err := sender.Send(context.Background(), Message{To: mail.Address{Address: "ana@example.com"}, Subject: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}
