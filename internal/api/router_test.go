package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudemu/engine/internal/api/handlers"
	"github.com/cloudemu/engine/internal/auth"
	"github.com/cloudemu/engine/internal/console"
	"github.com/cloudemu/engine/internal/metrics"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/runtime"
	"github.com/cloudemu/engine/internal/services"
	"github.com/cloudemu/engine/internal/testutil"
	"github.com/cloudemu/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	t   *testing.T
	url string
	rt  *testutil.MockRuntime
	// ip keeps the shared per-IP rate limiter from spanning tests.
	ip string
}

var nextClientIP atomic.Int32

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	rt := &testutil.MockRuntime{}
	m := metrics.New(nil)
	lc := services.Lifecycle{Runtime: rt, Metrics: m}

	userRepo := repository.NewUserRepository(db)
	tokens := auth.NewTokens([]byte("test-secret"), auth.DefaultTTL)
	verifier := auth.NewVerifier(tokens, userRepo)
	computeSvc := services.NewComputeService(repository.NewInstanceRepository(db), lc)
	databaseSvc := services.NewDatabaseService(repository.NewDBInstanceRepository(db), "localhost", lc)

	router := NewRouter(Dependencies{
		Verifier:        verifier,
		TrustProxy:      true,
		CORSOrigins:     []string{"http://localhost:5173"},
		AuthHandler:     handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens)),
		ComputeHandler:  handlers.NewComputeHandler(computeSvc, console.NewBridge(rt, computeSvc, verifier, console.Options{Metrics: m})),
		DatabaseHandler: handlers.NewDatabaseHandler(databaseSvc),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Check{
			"runtime": rt.Ping,
		}),
		Metrics: m.Handler(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, url: srv.URL, rt: rt, ip: fmt.Sprintf("10.0.%d.1", nextClientIP.Add(1))}
}

func (s *testServer) do(method, path string, body any, token string) (int, envelope) {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.url+path, rdr)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", s.ip)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestComputeRoutes(t *testing.T) {
	s := newTestServer(t)
	s.rt.On("CreateAndStart", mock.Anything, mock.MatchedBy(func(spec runtime.CreateSpec) bool {
		return spec.Name == "ec2-web" && spec.Image == "ubuntu:22.04"
	})).Return("cid-1", nil).Once()

	code, env := s.do(http.MethodPost, "/ec2/instances", map[string]string{"identifier": "web", "ami_id": "ubuntu:22.04"}, "")
	require.Equal(t, http.StatusOK, code)
	var inst struct {
		InstanceID   string `json:"instance_id"`
		Identifier   string `json:"identifier"`
		InstanceType string `json:"instance_type"`
		Status       string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inst))
	assert.Equal(t, "cid-1", inst.InstanceID)
	assert.Equal(t, "ec2-web", inst.Identifier)
	assert.Equal(t, "t2.micro", inst.InstanceType)
	assert.Equal(t, "running", inst.Status)

	code, env = s.do(http.MethodPost, "/ec2/instances", map[string]string{"identifier": "web", "ami_id": "alpine"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)

	code, env = s.do(http.MethodGet, "/ec2/instances", nil, "")
	assert.Equal(t, http.StatusOK, code)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	s.rt.On("Stop", mock.Anything, "cid-1").Return(nil).Once()
	code, env = s.do(http.MethodPost, "/ec2/instances/cid-1/stop", nil, "")
	assert.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &inst))
	assert.Equal(t, "stopped", inst.Status)

	code, env = s.do(http.MethodGet, "/ec2/instances/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Instance not found", env.Error.Message)

	s.rt.On("Remove", mock.Anything, "cid-1", true).Return(nil).Once()
	code, _ = s.do(http.MethodDelete, "/ec2/instances/cid-1", nil, "")
	assert.Equal(t, http.StatusNoContent, code)
	s.rt.AssertExpectations(t)
}

func TestComputeCreateValidation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/ec2/instances", map[string]string{"identifier": "web"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid", env.Error.Code)

	code, _ = s.do(http.MethodPost, "/ec2/instances", map[string]string{"identifier": "bad name!", "ami_id": "alpine"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, s.rt.Calls)
}

func TestComputeRuntimeFaultIs500(t *testing.T) {
	s := newTestServer(t)
	s.rt.On("CreateAndStart", mock.Anything, mock.Anything).
		Return("", &runtime.Fault{Kind: runtime.KindUnavailable, Op: "create", Err: errors.New("daemon down")}).Once()

	code, env := s.do(http.MethodPost, "/ec2/instances", map[string]string{"identifier": "web", "ami_id": "alpine"}, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "runtime_fault", env.Error.Code)
}

func TestDatabaseRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/rds/", map[string]string{
		"identifier": "orders", "username": "app", "password": "secret", "engine": "oracle",
	}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unsupported_engine", env.Error.Code)
	assert.Equal(t, "Unsupported Engine", env.Error.Message)
	assert.Empty(t, s.rt.Calls)

	s.rt.On("CreateAndStart", mock.Anything, mock.Anything).Return("rid-1", nil).Once()
	s.rt.On("Inspect", mock.Anything, "rid-1").
		Return(runtime.Info{ID: "rid-1", Running: true, PublishedPorts: map[string]int{"5432/tcp": 49154}}, nil).Once()

	code, env = s.do(http.MethodPost, "/rds/", map[string]string{
		"identifier": "orders", "username": "app", "password": "secret", "engine": "postgres",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var inst struct {
		Identifier string `json:"identifier"`
		Endpoint   string `json:"endpoint"`
		Port       int    `json:"port"`
		Engine     string `json:"engine"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inst))
	assert.Equal(t, "db-orders", inst.Identifier)
	assert.Equal(t, "localhost", inst.Endpoint)
	assert.Equal(t, 49154, inst.Port)

	s.rt.On("Inspect", mock.Anything, "db-orders").Return(runtime.Info{ID: "rid-1"}, nil).Once()
	s.rt.On("Stop", mock.Anything, "rid-1").Return(nil).Once()
	s.rt.On("Remove", mock.Anything, "rid-1", false).Return(nil).Once()
	code, env = s.do(http.MethodDelete, "/rds/rid-1", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"msg":"Deleted"}`, string(env.Data))
	s.rt.AssertExpectations(t)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "Dev@Example.com", "password": "password123", "name": "Dev",
	}, "")
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(http.MethodPost, "/auth/login", map[string]string{
		"email": "dev@example.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	code, env = s.do(http.MethodPost, "/auth/login", map[string]string{
		"email": "dev@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)

	code, _ = s.do(http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodGet, "/auth/me", nil, tok.AccessToken)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "dev@example.com", me.Email)
}

func TestConsoleRouteUpgradesThroughMiddleware(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/ec2/instances/cid-1/console?token=bogus"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Empty(t, s.rt.Calls)
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t)
	s.rt.On("Ping", mock.Anything).Return(errors.New("cannot connect")).Once()

	code, _ := s.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)

	resp, err := http.Get(s.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
