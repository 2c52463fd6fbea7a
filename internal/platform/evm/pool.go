package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Endpoint is one read-capable RPC URL for the contract's network.
type Endpoint string

// Pool is the ordered list of interchangeable read endpoints of one deployment.
// The first endpoint is the most preferred. Blank entries are skipped and
// duplicates are kept.
type Pool struct {
	endpoints []Endpoint
}

func NewPool(urls []string) *Pool {
	endpoints := make([]Endpoint, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		endpoints = append(endpoints, Endpoint(u))
	}
	return &Pool{endpoints: endpoints}
}

// Endpoints returns a copy in preference order.
func (p *Pool) Endpoints() []Endpoint {
	out := make([]Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

func (p *Pool) Len() int {
	return len(p.endpoints)
}

// ChainReader is the read surface the resolver needs from an endpoint.
// *ethclient.Client satisfies it.
type ChainReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// ReceiptReader is the surface used to confirm a submitted transaction.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	Close()
}

// Client is everything an endpoint connection offers.
type Client interface {
	ChainReader
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// Dialer opens a connection to one endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint Endpoint) (Client, error)
}

type ethDialer struct{}

// NewDialer returns a Dialer backed by go-ethereum's JSON-RPC client.
func NewDialer() Dialer {
	return ethDialer{}
}

func (ethDialer) Dial(ctx context.Context, endpoint Endpoint) (Client, error) {
	client, err := ethclient.DialContext(ctx, string(endpoint))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return client, nil
}
