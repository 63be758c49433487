package notify_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
)

func TestGateway_PostsMMS(t *testing.T) {
	var got map[string]map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/v4/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messageId":"m-1","statusCode":"2000"}`))
	}))
	defer srv.Close()

	g, err := notify.NewGateway(notify.GatewayConfig{BaseURL: srv.URL + "/", APIKey: "k", Sender: "0212345678"}, srv.Client())
	require.NoError(t, err)

	rc, err := g.Send(context.Background(), notify.Message{
		To:         "01012345678",
		Text:       "hello",
		Attachment: &notify.Attachment{Name: "qr.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", rc.MessageID)
	assert.Equal(t, "Bearer k", auth)

	msg := got["message"]
	assert.Equal(t, "01012345678", msg["to"])
	assert.Equal(t, "0212345678", msg["from"])
	assert.Equal(t, "MMS", msg["type"])
	att := msg["attachment"].(map[string]any)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), att["data"])
}

func TestGateway_Non2xxIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := notify.NewGateway(notify.GatewayConfig{BaseURL: srv.URL, Sender: "0212345678"}, srv.Client())
	require.NoError(t, err)

	_, err = g.Send(context.Background(), notify.Message{To: "01012345678", Text: "hi"})
	var ge *notify.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, http.StatusTooManyRequests, ge.StatusCode)
	assert.Contains(t, ge.Body, "quota")
}

func TestMessage_Validate(t *testing.T) {
	assert.ErrorIs(t, notify.Message{Text: "x"}.Validate(), notify.ErrNoRecipient)
	assert.ErrorIs(t, notify.Message{To: "1"}.Validate(), notify.ErrEmptyMessage)

	big := notify.Message{To: "1", Text: "x", Attachment: &notify.Attachment{Data: make([]byte, notify.MaxAttachmentBytes+1)}}
	assert.ErrorIs(t, big.Validate(), notify.ErrAttachmentTooLarge)
	assert.Equal(t, "SMS", notify.Message{}.Type())
}

func TestLogSender_RecordsAndFails(t *testing.T) {
	s := notify.NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := s.Send(context.Background(), notify.Message{To: "01012345678", Text: "hi"})
	require.NoError(t, err)
	assert.Len(t, s.Sent(), 1)

	boom := errors.New("boom")
	s.FailWith(boom)
	_, err = s.Send(context.Background(), notify.Message{To: "01012345678", Text: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.Sent(), 1)
}
