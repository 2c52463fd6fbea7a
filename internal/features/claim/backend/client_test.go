package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/common/errors"
	verifymodels "daily-claim-backend/internal/features/verification/models"
)

const address = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestGetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/claim-status/"+address, r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"address":"`+address+`","lastClaimed":0,"canClaim":true,"nextClaimTime":0,"timeLeft":0,"claimAmount":"1","balance":"12.5","endpointUsed":"http://rpc"}`)
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL+"/api/v1/", time.Second).GetStatus(context.Background(), address)
	require.NoError(t, err)
	assert.True(t, status.CanClaim)
	assert.Equal(t, "12.5", status.Balance)
}

func TestGetStatusErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"error":"Failed to fetch user claim status from any RPC endpoint","code":"ALL_ENDPOINTS_EXHAUSTED","details":"timeout"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).GetStatus(context.Background(), address)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExternalAPI))
	assert.True(t, errors.HasCode(err, errors.ErrCodeAllEndpointsExhausted))
}

func TestGetStatusUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).GetStatus(context.Background(), address)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExternalAPI))
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/claims/verify", r.URL.Path)

		var got verifymodels.VerifyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "claim-1-x", got.Reference)
		_, _ = io.WriteString(w, `{"success":true,"message":"Claim recorded, awaiting confirmation"}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Verify(context.Background(), &verifymodels.VerifyRequest{
		TransactionID: "0xabc", Reference: "claim-1-x", UserAddress: address,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}
