package gcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestGoogleAPI(t *testing.T, mux *http.ServeMux) *GoogleAPI {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	g, err := NewGoogleAPI(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	g.pollInterval = time.Millisecond
	return g
}

func writeGoogleError(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": code, "message": status, "status": status},
	})
}

func TestGoogleAPI_GetProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/projects/acme-cms-stage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"projectId":"acme-cms-stage","projectNumber":"42","name":"Acme CMS Stage"}`))
	})
	mux.HandleFunc("GET /v1/projects/hidden", func(w http.ResponseWriter, r *http.Request) {
		writeGoogleError(w, http.StatusForbidden, "PERMISSION_DENIED")
	})
	mux.HandleFunc("GET /v1/projects/broken", func(w http.ResponseWriter, r *http.Request) {
		writeGoogleError(w, http.StatusInternalServerError, "INTERNAL")
	})
	g := newTestGoogleAPI(t, mux)

	p, err := g.GetProject(context.Background(), "acme-cms-stage")
	require.NoError(t, err)
	assert.Equal(t, &Project{ProjectID: "acme-cms-stage", ProjectNumber: "42", Name: "Acme CMS Stage"}, p)

	p, err = g.GetProject(context.Background(), "hidden")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = g.GetProject(context.Background(), "broken")
	assert.Error(t, err)
}

func TestGoogleAPI_CreateProjectPollsOperation(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name      string `json:"name"`
			ProjectID string `json:"projectId"`
			Parent    struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"parent"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acme-cms-prod", body.ProjectID)
		assert.Equal(t, "folder", body.Parent.Type)
		assert.Equal(t, "folder-1", body.Parent.ID)

		w.Write([]byte(`{"name":"operations/cp.1","done":false}`))
	})
	mux.HandleFunc("GET /v1/operations/cp.1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			w.Write([]byte(`{"name":"operations/cp.1","done":false}`))
			return
		}
		w.Write([]byte(`{"name":"operations/cp.1","done":true,"response":{"projectId":"acme-cms-prod","projectNumber":"77","name":"Acme CMS Prod"}}`))
	})
	g := newTestGoogleAPI(t, mux)

	p, err := g.CreateProject(context.Background(), "Acme CMS Prod", "acme-cms-prod", "folder-1")
	require.NoError(t, err)
	assert.Equal(t, &Project{ProjectID: "acme-cms-prod", ProjectNumber: "77", Name: "Acme CMS Prod"}, p)
	assert.Equal(t, 2, polls)
}

func TestGoogleAPI_CreateProjectTaken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects", func(w http.ResponseWriter, r *http.Request) {
		writeGoogleError(w, http.StatusConflict, "ALREADY_EXISTS")
	})
	g := newTestGoogleAPI(t, mux)

	_, err := g.CreateProject(context.Background(), "Acme", "acme", "folder-1")
	assert.ErrorIs(t, err, ErrProjectIDTaken)
}

func TestGoogleAPI_OperationNeverCompletes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/projects", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"operations/cp.2"}`))
	})
	mux.HandleFunc("GET /v1/operations/cp.2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"operations/cp.2"}`))
	})
	g := newTestGoogleAPI(t, mux)
	g.pollAttempts = 2

	_, err := g.CreateProject(context.Background(), "Acme", "acme", "folder-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not complete")
}
