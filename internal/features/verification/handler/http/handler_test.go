package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/middleware"
	"daily-claim-backend/internal/features/verification/models"
)

type stubService struct {
	got  *models.VerifyRequest
	resp *models.VerifyResponse
	err  error
}

func (s *stubService) Verify(_ context.Context, req *models.VerifyRequest) (*models.VerifyResponse, error) {
	s.got = req
	return s.resp, s.err
}

func post(svc *stubService, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Errors(zerolog.Nop()))
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/claims/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyClaim(t *testing.T) {
	svc := &stubService{resp: &models.VerifyResponse{Success: true, Message: "Claim recorded, awaiting confirmation"}}

	w := post(svc, `{"transactionId":"0xabc","reference":"claim-1-x","userAddress":"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "claim-1-x", svc.got.Reference)

	var body models.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Claim recorded, awaiting confirmation", body.Message)
}

func TestVerifyClaimMissingFields(t *testing.T) {
	svc := &stubService{}

	w := post(svc, `{"transactionId":"0xabc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.got)
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeBadRequest))
}

func TestVerifyClaimServiceError(t *testing.T) {
	svc := &stubService{err: errors.NewInvalidAddressError("0x1")}

	w := post(svc, `{"transactionId":"0xabc","reference":"claim-1-x","userAddress":"0x1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or missing user address")
}
