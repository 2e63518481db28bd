package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{scope.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("empresa t1: %w", scope.ErrTenantInactive), http.StatusUnauthorized},
		{&scope.DenyError{Reason: scope.ReasonCrossTenant, Kind: scope.KindUnit, ID: "u1"}, http.StatusForbidden},
		{fmt.Errorf("unit u9: %w", scope.ErrNotFound), http.StatusNotFound},
		{scope.ErrConflict, http.StatusConflict},
		{scope.ErrInvalidRole, http.StatusBadRequest},
		{scope.ErrInvalidArgument, http.StatusBadRequest},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		got, _ := Status(c.err)
		assert.Equal(t, c.status, got, c.err.Error())
	}
}

func TestErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, zap.NewNop().Sugar(), errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Code)
	assert.NotContains(t, body.Message, "pq")
}

func TestErrorForbiddenIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, &scope.DenyError{Reason: scope.ReasonNotOwner, Kind: scope.KindBill, ID: "b1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"forbidden"`)
}

func TestDecode(t *testing.T) {
	var v struct{ Name string }
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(r, &v))
	assert.Equal(t, "x", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorIs(t, Decode(r, &v), scope.ErrInvalidArgument)
}
