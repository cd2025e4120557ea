package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/user"
)

func newTestCache(t *testing.T) SessionCache {
	t.Helper()
	return NewFileSessionCacheAt(filepath.Join(t.TempDir(), "session.json"))
}

func cachedSession(t *testing.T, cache SessionCache) *Session {
	t.Helper()
	sess, err := cache.Load()
	require.NoError(t, err)
	return sess
}

func TestClientLogin(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleStudent}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/functions/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Password != "s3cr3t!pass" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{Token: "tok-123", User: usr})
	}))
	defer srv.Close()

	cache := newTestCache(t)
	c := New(srv.URL, cache)

	t.Run("wrong password leaves cache untouched", func(t *testing.T) {
		_, err := c.Login(context.Background(), "jane@school.com", "wr0ng")
		assert.Equal(t, ErrInvalidCredentials, err)
		assert.Nil(t, cachedSession(t, cache))
	})

	t.Run("ok caches the session", func(t *testing.T) {
		got, err := c.Login(context.Background(), "jane@school.com", "s3cr3t!pass")
		require.NoError(t, err)
		assert.Equal(t, usr, got)

		sess := cachedSession(t, cache)
		require.NotNil(t, sess)
		assert.Equal(t, "tok-123", sess.Token)
		assert.Equal(t, usr, sess.User)

		cur, err := c.CurrentUser()
		require.NoError(t, err)
		assert.Equal(t, &usr, cur)
	})
}

func TestClientValidateSession(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleInstructor}

	t.Run("no cached session", func(t *testing.T) {
		c := New("http://localhost:0", newTestCache(t))
		got, err := c.ValidateSession(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ok refreshes the snapshot", func(t *testing.T) {
		// the server is authoritative: it returns a newer name than the snapshot
		fresh := usr
		fresh.Name = "Jane D. Doe"

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/functions/session", r.URL.Path)
			require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(fresh)
		}))
		defer srv.Close()

		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "tok-123", User: usr}))

		got, err := New(srv.URL, cache).ValidateSession(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, fresh, *got)

		sess := cachedSession(t, cache)
		require.NotNil(t, sess)
		assert.Equal(t, fresh, sess.User)
	})

	t.Run("rejected session clears the cache", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "user not authenticated"})
		}))
		defer srv.Close()

		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "revoked", User: usr}))

		got, err := New(srv.URL, cache).ValidateSession(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, cachedSession(t, cache))
	})

	t.Run("unreachable server clears the cache", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "tok-123", User: usr}))

		got, err := New(srv.URL, cache).ValidateSession(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, cachedSession(t, cache))
	})
}

func TestClientLogout(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleStudent}

	t.Run("invalidates remotely and clears the cache", func(t *testing.T) {
		var called bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/functions/logout", r.URL.Path)
			require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			called = true
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "tok-123", User: usr}))

		require.NoError(t, New(srv.URL, cache).Logout(context.Background()))
		assert.True(t, called)
		assert.Nil(t, cachedSession(t, cache))
	})

	t.Run("clears the cache even when the server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "tok-123", User: usr}))

		require.NoError(t, New(srv.URL, cache).Logout(context.Background()))
		assert.Nil(t, cachedSession(t, cache))
	})

	t.Run("no session is a no-op", func(t *testing.T) {
		require.NoError(t, New("http://localhost:0", newTestCache(t)).Logout(context.Background()))
	})
}

func TestFileSessionCache(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleAdmin}

	t.Run("round trip", func(t *testing.T) {
		cache := newTestCache(t)
		require.NoError(t, cache.Save(Session{Token: "tok-123", User: usr}))

		sess := cachedSession(t, cache)
		require.NotNil(t, sess)
		assert.Equal(t, "tok-123", sess.Token)
		assert.Equal(t, usr, sess.User)

		require.NoError(t, cache.Clear())
		assert.Nil(t, cachedSession(t, cache))
		require.NoError(t, cache.Clear()) // idempotent
	})

	t.Run("corrupt cache reads as no session and is removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		cache := NewFileSessionCacheAt(path)
		assert.Nil(t, cachedSession(t, cache))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}
