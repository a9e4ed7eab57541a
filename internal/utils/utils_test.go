package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avinasha18/interview-proctor/internal/models"
)

func TestParticipantTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := IssueParticipantToken(secret, "iv-1", models.RoleCandidate, "a@x.io", time.Hour)
	require.NoError(t, err)

	claims, err := ParseParticipantToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "iv-1", claims.InterviewID)
	assert.Equal(t, models.RoleCandidate, claims.Role)
	assert.Equal(t, "a@x.io", claims.Email)
}

func TestParticipantTokenRejections(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := IssueParticipantToken([]byte("other"), "iv-1", models.RoleInterviewer, "", time.Hour)
		require.NoError(t, err)
		_, err = ParseParticipantToken(secret, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := IssueParticipantToken(secret, "iv-1", models.RoleInterviewer, "", -time.Minute)
		require.NoError(t, err)
		_, err = ParseParticipantToken(secret, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseParticipantToken(secret, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := jwt.MapClaims{"interviewId": "iv-1", "role": "observer", "exp": time.Now().Add(time.Hour).Unix()}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		_, err = ParseParticipantToken(secret, tok)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("issue rejects unknown role", func(t *testing.T) {
		_, err := IssueParticipantToken(secret, "iv-1", models.Role("observer"), "", time.Hour)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: x", models.ErrValidation):   http.StatusBadRequest,
		fmt.Errorf("%w: x", models.ErrNotFound):     http.StatusNotFound,
		fmt.Errorf("%w: x", models.ErrInvalidState): http.StatusConflict,
		fmt.Errorf("%w: x", models.ErrConflict):     http.StatusConflict,
		fmt.Errorf("%w: x", models.ErrStorage):      http.StatusServiceUnavailable,
		errors.New("boom"):                          http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestWriteErrHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErr(rec, errors.New("db password is hunter2"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp models.Resp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "internal server error", resp.Info)
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"id": "x"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		OK   bool              `json:"ok"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "x", resp.Data["id"])
}

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"", "debug", "WARN", "dev"} {
		l, err := NewLogger(lvl)
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}
	_, err := NewLogger("loud")
	assert.Error(t, err)
}
