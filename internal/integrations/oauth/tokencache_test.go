package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, status *atomic.Int32, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		require.Equal(t, "id", r.PostForm.Get("client_id"))
		require.Equal(t, "secret", r.PostForm.Get("client_secret"))

		if s := status.Load(); s != 0 && s != http.StatusOK {
			w.WriteHeader(int(s))
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + string(rune('0'+calls.Load())) + `","token_type":"Bearer","expires_in":300}`))
	}))
}

func TestTokenCache_InertWithoutCredentials(t *testing.T) {
	c := New("http://127.0.0.1:1/never", "", "")
	require.False(t, c.Enabled())
	require.Nil(t, c.Token(context.Background()))
}

func TestTokenCache_CachesUntilNinetyPercentOfLifetime(t *testing.T) {
	var status, calls atomic.Int32
	srv := tokenServer(t, &status, &calls)
	defer srv.Close()

	base := time.Now()
	now := base
	c := New(srv.URL, "id", "secret").WithClock(func() time.Time { return now })

	tok := c.Token(context.Background())
	require.NotNil(t, tok)
	require.Equal(t, "tok-1", tok.AccessToken)
	require.WithinDuration(t, base.Add(270*time.Second), tok.Expiry, 2*time.Second)

	now = base.Add(260 * time.Second)
	tok = c.Token(context.Background())
	require.Equal(t, "tok-1", tok.AccessToken)
	require.Equal(t, int32(1), calls.Load())

	now = base.Add(275 * time.Second)
	tok = c.Token(context.Background())
	require.NotNil(t, tok)
	require.Equal(t, "tok-2", tok.AccessToken)
	require.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_FailureReturnsNil(t *testing.T) {
	var status, calls atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := tokenServer(t, &status, &calls)
	defer srv.Close()

	c := New(srv.URL, "id", "secret")
	require.Nil(t, c.Token(context.Background()))

	status.Store(http.StatusOK)
	tok := c.Token(context.Background())
	require.NotNil(t, tok)
	require.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_UnreachableReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, "id", "secret")
	require.Nil(t, c.Token(context.Background()))
}
