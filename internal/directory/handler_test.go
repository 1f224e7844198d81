package directory

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/identity"
	_ "github.com/audithub/audithub/testing"
)

func newHandlerServer(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, caller *authz.Caller, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req = req.WithContext(identity.ContextWithCaller(req.Context(), *caller))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateIdentityEndpoint(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)

	rr := doJSON(t, h, http.MethodPost, "/", &f.admin, map[string]any{
		"full_name": "New Auditor",
		"email":     "new@hotel.example",
		"password":  "longenough",
		"role":      "auditor",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OK     bool   `json:"ok"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.OK)

	id, err := uuid.Parse(resp.UserID)
	require.NoError(t, err)
	_, ok := f.profiles.profiles[id]
	require.True(t, ok, "profile must exist after create")
}

func TestCreateIdentityEndpointValidation(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)

	cases := map[string]map[string]any{
		"missing email":   {"password": "longenough", "role": "auditor"},
		"short password":  {"email": "a@b.example", "password": "short", "role": "auditor"},
		"superadmin role": {"email": "a@b.example", "password": "longenough", "role": "superadmin"},
		"unknown role":    {"email": "a@b.example", "password": "longenough", "role": "owner"},
	}
	for name, body := range cases {
		rr := doJSON(t, h, http.MethodPost, "/", &f.admin, body)
		require.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
	require.Empty(t, f.provider.calls, "invalid requests must not reach the provider")
}

func TestCreateIdentityEndpointRequiresCaller(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)

	rr := doJSON(t, h, http.MethodPost, "/", nil, map[string]any{
		"email": "new@hotel.example", "password": "longenough", "role": "auditor",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateIdentityEndpointIgnoresDeclaredHotel(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)
	foreign := uuid.New()

	// An admin's own hotel wins over whatever the body declares.
	rr := doJSON(t, h, http.MethodPost, "/", &f.admin, map[string]any{
		"email":    "new@hotel.example",
		"password": "longenough",
		"role":     "auditor",
		"hotel_id": foreign.String(),
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	profile := f.profiles.profiles[uuid.MustParse(resp.UserID)]
	require.NotNil(t, profile.HotelID)
	require.Equal(t, f.hotel, *profile.HotelID)
}

func TestDeleteIdentityEndpoint(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)
	target := f.seedTarget(authz.RoleAuditor, 2)

	rr := doJSON(t, h, http.MethodPost, "/delete", &f.admin, map[string]any{
		"user_id":  target.String(),
		"hotel_id": f.hotel.String(),
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []string{"grants.delete", "profile.delete", "provider.delete"}, f.calls)
}

func TestDeleteIdentityEndpointSelf(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)
	hotel := f.hotel
	f.profiles.profiles[f.admin.ID] = identity.Profile{ID: f.admin.ID, HotelID: &hotel, Role: authz.RoleAdmin, Active: true}

	rr := doJSON(t, h, http.MethodPost, "/delete", &f.admin, map[string]any{
		"user_id":  f.admin.ID.String(),
		"hotel_id": f.hotel.String(),
	})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteIdentityEndpointUnknownTarget(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)

	rr := doJSON(t, h, http.MethodPost, "/delete", &f.admin, map[string]any{
		"user_id":  uuid.New().String(),
		"hotel_id": f.hotel.String(),
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListIdentitiesEndpoint(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)
	f.seedTarget(authz.RoleAuditor, 0)
	f.seedTarget(authz.RoleManager, 0)

	rr := doJSON(t, h, http.MethodGet, "/", &f.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OK    bool `json:"ok"`
		Users []struct {
			ID     string `json:"id"`
			Email  string `json:"email"`
			Status string `json:"status"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.Len(t, resp.Users, 2)
}

func TestListIdentitiesEndpointSuperadminNeedsHotel(t *testing.T) {
	f := newFixture(t)
	h := newHandlerServer(t, f.service)
	super := authz.Caller{ID: uuid.New(), Role: authz.RoleSuperadmin, Active: true}

	rr := doJSON(t, h, http.MethodGet, "/", &super, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/?hotel_id="+f.hotel.String(), &super, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}
