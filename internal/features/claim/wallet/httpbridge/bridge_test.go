package httpbridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-claim-backend/internal/features/claim/wallet"
)

func TestStatusAndShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		_, _ = io.WriteString(w, `{"installed":true,"shapes":["raw_call"]}`)
	}))
	defer srv.Close()

	b := New(srv.URL+"/", time.Second, zerolog.Nop())
	assert.True(t, b.Installed(context.Background()))

	shapes, err := b.SupportedShapes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []wallet.Shape{wallet.ShapeRawCall}, shapes)
}

func TestInstalledFalseWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.False(t, New(srv.URL, time.Second, zerolog.Nop()).Installed(context.Background()))
}

func TestSendTransaction(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/commands/send-transaction", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"finalPayload":{"transaction_id":"abc"}}`)
	}))
	defer srv.Close()

	raw, err := New(srv.URL, time.Second, zerolog.Nop()).SendTransaction(context.Background(), wallet.RawCallRequest{
		Transactions: []wallet.RawCall{{Recipient: "0x01", Calldata: "0x4e71d92d", Amount: "0x0"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"finalPayload":{"transaction_id":"abc"}}`, string(raw))

	txs := got["transactions"].([]interface{})
	assert.Equal(t, "0x4e71d92d", txs[0].(map[string]interface{})["calldata"])
}

func TestSendTransactionErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "user rejected", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, zerolog.Nop()).SendTransaction(context.Background(), wallet.ContractCallRequest{})
	assert.ErrorContains(t, err, "user rejected")
}
