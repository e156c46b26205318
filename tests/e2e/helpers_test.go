//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/comment"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/inviteduser"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/issue"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/machine"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/organization"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/testhelper"
	userrepo "github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/user"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/watcher"
	authpkg "github.com/pinpointhq/pinpoint-backend/internal/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/config"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	authsvc "github.com/pinpointhq/pinpoint-backend/internal/service/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/service/issues"
	"github.com/pinpointhq/pinpoint-backend/internal/service/machines"
	"github.com/pinpointhq/pinpoint-backend/internal/transport/rest"
)

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool

	// Org is a fresh tenant created for this test; requests carry its
	// subdomain in the X-Organization header.
	Org domain.Organization

	hasher *authpkg.Hasher
	users  *userrepo.Repo
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper) plus a fresh tenant.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	issueRepo := issue.New(pool)
	machineRepo := machine.New(pool)
	commentRepo := comment.New(pool)
	watcherRepo := watcher.New(pool)
	userRepo := userrepo.New(pool)
	orgRepo := organization.New(pool)
	invitedRepo := inviteduser.New(pool)

	jwtManager := authpkg.NewJWTManager("e2e-secret-long-enough-for-validation!!", "pinpoint-e2e", time.Hour)
	hasher := authpkg.NewHasher(10)

	issuesCfg := config.IssuesConfig{MaxTitleLength: 200, MaxCommentLength: 5000}
	issuesSvc := issues.NewService(logger, issueRepo, machineRepo, commentRepo, watcherRepo, invitedRepo, txm, issuesCfg)
	machinesSvc := machines.NewService(logger, machineRepo)
	authSvc := authsvc.NewService(logger, userRepo, jwtManager, hasher)

	handler, cleanup := rest.NewRouter(rest.RouterDeps{
		Issues:    rest.NewIssuesHandler(issuesSvc, logger),
		Machines:  rest.NewMachinesHandler(machinesSvc, logger),
		Auth:      rest.NewAuthHandler(authSvc, logger),
		Health:    rest.NewHealthHandler(pool, "e2e"),
		Orgs:      orgRepo,
		Validator: jwtValidator{jwt: jwtManager},
		Logger:    logger,
		CORS: config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowedHeaders: "Authorization,Content-Type,X-Organization",
		},
	})
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// Each test gets its own tenant; the container is shared.
	org, err := orgRepo.Create(context.Background(), &domain.Organization{
		ID:        uuid.New(),
		Name:      "E2E Arcade",
		Subdomain: "e2e-" + uuid.NewString()[:8],
	})
	require.NoError(t, err)

	return &testServer{
		URL:    server.URL,
		Client: server.Client(),
		Pool:   pool,
		Org:    *org,
		hasher: hasher,
		users:  userRepo,
	}
}

type jwtValidator struct {
	jwt *authpkg.JWTManager
}

func (v jwtValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	return v.jwt.ValidateAccessToken(token)
}

// createUser inserts a user directly through the repository and returns
// the profile. The password is always "hunter22-e2e".
func (ts *testServer) createUser(t *testing.T, name, email string, role domain.UserRole) *domain.UserProfile {
	t.Helper()

	hash, err := ts.hasher.Hash("hunter22-e2e")
	require.NoError(t, err)

	u, err := ts.users.Create(context.Background(), &domain.UserProfile{
		ID:             uuid.New(),
		OrganizationID: ts.Org.ID,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
	})
	require.NoError(t, err)
	return u
}

// login performs a real login through the API and returns the access token.
func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()

	status, body := ts.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "hunter22-e2e",
	})
	require.Equal(t, http.StatusOK, status, "login failed: %v", body)

	token, ok := body["accessToken"].(string)
	require.True(t, ok, "expected accessToken in login response")
	return token
}

// request sends a JSON request with the tenant header and optional bearer
// token, decoding the response into a generic map. For array responses use
// requestSlice.
func (ts *testServer) request(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body map[string]any
	status := ts.do(t, method, path, token, payload, &body)
	return status, body
}

// requestSlice is request for endpoints returning a JSON array.
func (ts *testServer) requestSlice(t *testing.T, method, path, token string, payload any) (int, []map[string]any) {
	t.Helper()

	var body []map[string]any
	status := ts.do(t, method, path, token, payload, &body)
	return status, body
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload, out any) int {
	t.Helper()

	var reqBody *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Organization", ts.Org.Subdomain)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		// Some error paths return an empty body; tolerate it.
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// uniqueEmail returns an email unique across the shared container.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@e2e.test", prefix, uuid.NewString()[:8])
}
