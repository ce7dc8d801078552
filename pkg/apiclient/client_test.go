package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:8000/")
	tokenClient := client.WithToken("test-token")

	assert.Empty(t, client.token)
	assert.Equal(t, "test-token", tokenClient.token)
	assert.Equal(t, "http://localhost:8000", tokenClient.baseURL)
}

func TestCreateInstanceUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ec2/instances", r.URL.Path)
		var req CreateInstanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "web", req.Identifier)
		respond(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"instance_id": "cid-1", "identifier": "ec2-web", "status": "running"},
		})
	}))
	defer server.Close()

	inst, err := New(server.URL).CreateInstance(CreateInstanceRequest{Identifier: "web", AmiID: "ubuntu:22.04"})
	require.NoError(t, err)
	assert.Equal(t, "cid-1", inst.InstanceID)
	assert.Equal(t, "ec2-web", inst.Identifier)
}

func TestAPIErrorFromEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   map[string]string{"code": "not_found", "message": "Instance not found"},
		})
	}))
	defer server.Close()

	_, err := New(server.URL).GetInstance("nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "not_found: Instance not found", apiErr.Error())
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := New(server.URL).ListInstances()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Too Many Requests", apiErr.Message)
}

func TestDeleteInstanceNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/ec2/instances/cid-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, New(server.URL).DeleteInstance("cid-1"))
}

func TestLoginSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		respond(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"access_token": "jwt", "token_type": "bearer"},
		})
	}))
	defer server.Close()

	tok, err := New(server.URL).Login("dev@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.AccessToken)
}

func TestConsoleURL(t *testing.T) {
	u, err := New("https://emu.example.com/").WithToken("a b").ConsoleURL("cid-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://emu.example.com/ec2/instances/cid-1/console?token=a+b", u)

	u, err = New("http://localhost:8000").WithToken("t").ConsoleURL("cid-1")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/ec2/instances/cid-1/console?token=t", u)
}
