package atlas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := NewHTTPClient("public", "private", "grp1", WithBaseURL(server.URL+"/"))
	require.NoError(t, err)
	return c
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":     status,
		"errorCode": code,
		"detail":    "detail for " + code,
	})
}

func TestNewHTTPClient_Validation(t *testing.T) {
	_, err := NewHTTPClient("", "k", "p")
	assert.Error(t, err)
	_, err = NewHTTPClient("u", "k", "")
	assert.Error(t, err)
}

func TestGetUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /groups/grp1/databaseUsers/admin/acme", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"username":"acme","databaseName":"admin"}`))
	})
	mux.HandleFunc("GET /groups/grp1/databaseUsers/admin/ghost", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "USERNAME_NOT_FOUND")
	})
	mux.HandleFunc("GET /groups/grp1/databaseUsers/admin/denied", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "ORG_REQUIRES_ACCESS_LIST")
	})
	c := newTestClient(t, mux)

	user, err := c.GetUser(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, &User{Username: "acme", DatabaseName: "admin"}, user)

	user, err = c.GetUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = c.GetUser(context.Background(), "denied")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ORG_REQUIRES_ACCESS_LIST", apiErr.ErrorCode)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestCreateUser(t *testing.T) {
	var got createUserRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /groups/grp1/databaseUsers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Username == "taken" {
			writeError(w, http.StatusConflict, "USER_ALREADY_EXISTS")
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	c := newTestClient(t, mux)

	err := c.CreateUser(context.Background(), "acme", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, createUserRequest{
		DatabaseName: "admin",
		Username:     "acme",
		GroupID:      "grp1",
		Password:     "s3cret",
		Roles: []role{
			{DatabaseName: "acme", RoleName: "dbAdmin"},
			{DatabaseName: "acme", RoleName: "readWrite"},
		},
	}, got)

	err = c.CreateUser(context.Background(), "taken", "s3cret")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestGetConnectionString(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /groups/grp1/clusters/Stage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Stage","srvAddress":"mongodb+srv://stage.abc.mongodb.net"}`))
	})
	mux.HandleFunc("GET /groups/grp1/clusters/Empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Empty"}`))
	})
	c := newTestClient(t, mux)

	addr, err := c.GetConnectionString(context.Background(), "Stage")
	require.NoError(t, err)
	assert.Equal(t, "mongodb+srv://stage.abc.mongodb.net", addr)

	_, err = c.GetConnectionString(context.Background(), "Empty")
	assert.Error(t, err)
}
