package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

func browserSubscription(t *testing.T, endpoint string) models.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return models.PushSubscription{
		Endpoint: endpoint,
		Keys: models.SubscriptionKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

func newSender(t *testing.T) *Sender {
	t.Helper()
	pub, priv, err := GenerateKeys()
	require.NoError(t, err)
	return New(Config{PublicKey: pub, PrivateKey: priv, Subscriber: "mailto:test@example.com"})
}

func TestSender_Send_Created(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		require.Equal(t, "60", r.Header.Get("TTL"))
		require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "vapid "))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := newSender(t)
	code, err := s.Send(context.Background(), browserSubscription(t, srv.URL+"/push/1"), []byte(`{"title":"t","body":"b","url":"/"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code)
}

func TestSender_Send_GoneIsStatusNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	code, err := newSender(t).Send(context.Background(), browserSubscription(t, srv.URL), []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusGone, code)
}

func TestSender_Send_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newSender(t).Send(context.Background(), browserSubscription(t, url), []byte(`{}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "webpush send")
}

func TestGenerateKeys(t *testing.T) {
	pub, priv, err := GenerateKeys()
	require.NoError(t, err)
	require.NotEmpty(t, pub)
	require.NotEmpty(t, priv)
	require.NotEqual(t, pub, priv)
}
