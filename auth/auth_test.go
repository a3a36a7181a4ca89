package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdu-tools/dataload/auth"
)

func TestNewTokenSourceValidation(t *testing.T) {
	_, err := auth.NewTokenSource(context.Background(), auth.Config{ClientID: "id"})
	require.Error(t, err)
}

func TestTokenSourceCachesToken(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok-1", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer srv.Close()

	ts, err := auth.NewTokenSource(context.Background(), auth.Config{
		TokenURL:     srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	})
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)

	// A second fetch inside the expiry window reuses the cached token.
	_, err = ts.Token()
	require.NoError(t, err)
	assert.EqualValues(t, 1, requests)
}

func TestStaticTokenSource(t *testing.T) {
	tok, err := auth.StaticTokenSource("abc").Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}
