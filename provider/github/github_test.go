package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/box"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *RESTClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := NewRESTClient("token", "mindful-studio", WithBaseURL(server.URL))
	require.NoError(t, err)
	return c
}

func TestNewRESTClient_Validation(t *testing.T) {
	_, err := NewRESTClient("", "org")
	assert.Error(t, err)
	_, err = NewRESTClient("token", "")
	assert.Error(t, err)
}

func TestGetRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mindful-studio/demo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"name":"demo","ssh_url":"git@github.com:mindful-studio/demo.git"}`))
	})
	mux.HandleFunc("GET /repos/mindful-studio/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})
	mux.HandleFunc("GET /repos/mindful-studio/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})
	c := newTestClient(t, mux)

	repo, err := c.GetRepo(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, &Repo{Name: "demo", SSHURL: "git@github.com:mindful-studio/demo.git"}, repo)

	repo, err = c.GetRepo(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, repo)

	_, err = c.GetRepo(context.Background(), "broken")
	assert.Error(t, err)
}

func TestCreateRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orgs/mindful-studio/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acme", body["name"])
		assert.Equal(t, true, body["private"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"name":"acme","ssh_url":"git@github.com:mindful-studio/acme.git"}`))
	})
	c := newTestClient(t, mux)

	repo, err := c.CreateRepo(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:mindful-studio/acme.git", repo.SSHURL)
}

func TestAddSecrets(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	require.NoError(t, err)

	received := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/mindful-studio/acme/actions/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"key_id": "key-1",
			"key":    base64.StdEncoding.EncodeToString(pub[:]),
		})
	})
	mux.HandleFunc("PUT /repos/mindful-studio/acme/actions/secrets/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			KeyID          string `json:"key_id"`
			EncryptedValue string `json:"encrypted_value"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "key-1", body.KeyID)

		sealed, err := base64.StdEncoding.DecodeString(body.EncryptedValue)
		require.NoError(t, err)
		plain, ok := box.OpenAnonymous(nil, sealed, pub, priv)
		require.True(t, ok)
		received[r.PathValue("name")] = string(plain)

		w.WriteHeader(http.StatusCreated)
	})
	c := newTestClient(t, mux)

	err = c.AddSecrets(context.Background(), "acme", map[string]string{
		"NPM_TOKEN":     "npm-secret",
		"VERCEL_ORG_ID": "team_1",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"NPM_TOKEN": "npm-secret", "VERCEL_ORG_ID": "team_1"}, received)
}

func TestSeal_RejectsBadKey(t *testing.T) {
	_, err := Seal("not base64!", "v")
	assert.Error(t, err)

	_, err = Seal(base64.StdEncoding.EncodeToString([]byte("short")), "v")
	assert.Error(t, err)
}
