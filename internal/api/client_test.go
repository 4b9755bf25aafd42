package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensictl/internal/authz"
	"presensictl/internal/session"
	"presensictl/internal/transport"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL})
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, LoginPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "budi", body["username"])

		fmt.Fprint(w, `{
			"accessToken": "access-1",
			"refreshToken": "refresh-1",
			"user": {"id": 42, "username": "budi", "name": "Budi Santoso", "level": 3},
			"admin_opd": {"id": 7, "code": "DISDIK", "name": "Dinas Pendidikan"}
		}`)
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Login(context.Background(), "budi", "rahasia")
	require.NoError(t, err)

	assert.Equal(t, "access-1", res.AccessToken)
	assert.Equal(t, "refresh-1", res.RefreshToken)
	assert.Equal(t, int64(42), res.Account.ID)
	assert.Equal(t, "3", res.Account.Level)
	require.NotNil(t, res.AdminOPD)
	assert.Equal(t, "DISDIK", res.AdminOPD.Code)
	assert.Nil(t, res.AdminUPT)
}

func TestLoginRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusBadRequest} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				fmt.Fprint(w, `{"message": "invalid username or password"}`)
			}))
			defer srv.Close()

			_, err := newTestClient(srv).Login(context.Background(), "budi", "salah")
			require.ErrorIs(t, err, session.ErrInvalidCredentials)
			assert.Contains(t, err.Error(), "invalid username or password")
		})
	}
}

func TestRefreshTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, RefreshPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-1", body["refreshToken"])

		fmt.Fprint(w, `{"accessToken": "access-2", "refreshToken": "refresh-2"}`)
	}))
	defer srv.Close()

	pair, err := newTestClient(srv).RefreshTokens(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestRefreshTokensRejection(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantInvalid bool
	}{
		{"401 maps to invalid refresh token", http.StatusUnauthorized, `{"message": "expired"}`, true},
		{"explicit code maps regardless of status", http.StatusBadRequest, `{"code": "INVALID_REFRESH_TOKEN"}`, true},
		{"server error stays transient", http.StatusInternalServerError, `{"message": "boom"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(srv).RefreshTokens(context.Background(), "refresh-1")
			require.Error(t, err)
			assert.Equal(t, tt.wantInvalid, errors.Is(err, session.ErrInvalidRefreshToken))
		})
	}
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, ProfilePath, r.URL.Path)
		fmt.Fprint(w, `{
			"id": 42, "username": "budi", "name": "Budi Santoso", "level": "3",
			"admin_upt": {"id": 9, "code": "UPT-01", "name": "UPT Wilayah 1"}
		}`)
	}))
	defer srv.Close()

	user, err := newTestClient(srv).Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, authz.RoleAdminUPT, user.Role)
	require.NotNil(t, user.AdminUPT)
	assert.Equal(t, "UPT-01", user.AdminUPT.Code)
	assert.Nil(t, user.AdminOPD)
}

func TestErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-123")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "name is required", "code": "VALIDATION_FAILED"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Profile(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, transport.CategoryValidation, apiErr.Category)
	assert.Equal(t, "name is required", apiErr.Message)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	assert.Equal(t, "req-123", apiErr.RequestID)
}

func TestErrorDecodingNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Profile(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, transport.CategoryServer, apiErr.Category)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestListOrgUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/org-units", r.URL.Path)
		fmt.Fprint(w, `{"data": [
			{"id": 1, "code": "DISDIK", "name": "Dinas Pendidikan"},
			{"id": 2, "code": "UPT-01", "name": "UPT Wilayah 1", "parent_id": 1}
		]}`)
	}))
	defer srv.Close()

	units, err := newTestClient(srv).ListOrgUnits(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "DISDIK", units[0].Code)
	require.NotNil(t, units[1].ParentID)
	assert.Equal(t, int64(1), *units[1].ParentID)
}

func TestExportAttendance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("org_unit_id"))
		assert.Equal(t, "2026-08-01", r.URL.Query().Get("from"))
		fmt.Fprint(w, "csv,data,here")
	}))
	defer srv.Close()

	var buf bytes.Buffer
	params := ReportParams{OrgUnitID: 7, From: "2026-08-01"}
	require.NoError(t, newTestClient(srv).ExportAttendance(context.Background(), params, &buf))
	assert.Equal(t, "csv,data,here", buf.String())
}

func TestImportEmployees(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("org_unit_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "pegawai.xlsx", header.Filename)

		var content bytes.Buffer
		_, err = content.ReadFrom(file)
		require.NoError(t, err)
		assert.Equal(t, "spreadsheet-bytes", content.String())
	}))
	defer srv.Close()

	err := newTestClient(srv).ImportEmployees(context.Background(), 7, "pegawai.xlsx", strings.NewReader("spreadsheet-bytes"))
	require.NoError(t, err)
}
