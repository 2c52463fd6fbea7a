// Package keybridge is a wallet bridge that signs with a local private key
// and broadcasts EIP-1559 transactions through an RPC endpoint.
package keybridge

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"daily-claim-backend/internal/features/claim/wallet"
)

const defaultGasLimit = uint64(100000)

// Node is the write surface of an RPC endpoint. *ethclient.Client satisfies it.
type Node interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Bridge struct {
	node   Node
	key    *ecdsa.PrivateKey
	from   common.Address
	logger zerolog.Logger
}

type sendResult struct {
	TransactionHash string `json:"transactionHash"`
}

func New(node Node, privateKeyHex string, logger zerolog.Logger) (*Bridge, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	return &Bridge{
		node:   node,
		key:    key,
		from:   crypto.PubkeyToAddress(*publicKey),
		logger: logger,
	}, nil
}

// Dial connects to endpoint and returns a bridge signing with privateKeyHex.
func Dial(ctx context.Context, endpoint, privateKeyHex string, logger zerolog.Logger) (*Bridge, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return New(client, privateKeyHex, logger)
}

// Address is the account transactions are sent from.
func (b *Bridge) Address() common.Address {
	return b.from
}

func (b *Bridge) Installed(context.Context) bool {
	return b.key != nil
}

func (b *Bridge) SupportedShapes(context.Context) ([]wallet.Shape, error) {
	return []wallet.Shape{wallet.ShapeContractCall, wallet.ShapeRawCall}, nil
}

func (b *Bridge) SendTransaction(ctx context.Context, req wallet.Request) (json.RawMessage, error) {
	to, data, value, err := encode(req)
	if err != nil {
		return nil, err
	}

	nonce, err := b.node.PendingNonceAt(ctx, b.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	head, err := b.node.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}
	tipCap, err := b.node.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest tip cap: %w", err)
	}

	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(baseFee, big.NewInt(2)))

	gasLimit, err := b.node.EstimateGas(ctx, ethereum.CallMsg{From: b.from, To: &to, Value: value, Data: data})
	if err != nil {
		b.logger.Warn().Err(err).Uint64("gas_limit", defaultGasLimit).Msg("Gas estimation failed, using default")
		gasLimit = defaultGasLimit
	}

	chainID, err := b.node.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), b.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := b.node.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	b.logger.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("shape", string(req.Shape())).
		Uint64("gas_limit", gasLimit).
		Str("tip_cap", tipCap.String()).
		Str("fee_cap", feeCap.String()).
		Msg("Transaction sent")

	return json.Marshal(sendResult{TransactionHash: signed.Hash().Hex()})
}

// encode turns a single-call request into the destination, calldata and value.
func encode(req wallet.Request) (common.Address, []byte, *big.Int, error) {
	switch r := req.(type) {
	case wallet.ContractCallRequest:
		if len(r.Transaction) != 1 {
			return common.Address{}, nil, nil, fmt.Errorf("expected exactly one call, got %d", len(r.Transaction))
		}
		return encodeContractCall(r.Transaction[0])
	case wallet.RawCallRequest:
		if len(r.Transactions) != 1 {
			return common.Address{}, nil, nil, fmt.Errorf("expected exactly one transaction, got %d", len(r.Transactions))
		}
		return encodeRawCall(r.Transactions[0])
	default:
		return common.Address{}, nil, nil, fmt.Errorf("unsupported request %T", req)
	}
}

func encodeContractCall(call wallet.ContractCall) (common.Address, []byte, *big.Int, error) {
	if !common.IsHexAddress(call.Address) {
		return common.Address{}, nil, nil, fmt.Errorf("invalid contract address %q", call.Address)
	}
	rawABI, err := json.Marshal(call.ABI)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("marshal abi: %w", err)
	}
	parsed, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(call.FunctionName, call.Args...)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("pack %s: %w", call.FunctionName, err)
	}
	return common.HexToAddress(call.Address), data, new(big.Int), nil
}

func encodeRawCall(call wallet.RawCall) (common.Address, []byte, *big.Int, error) {
	if !common.IsHexAddress(call.Recipient) {
		return common.Address{}, nil, nil, fmt.Errorf("invalid recipient %q", call.Recipient)
	}
	data, err := hexutil.Decode(call.Calldata)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("decode calldata: %w", err)
	}
	value := new(big.Int)
	if call.Amount != "" {
		if value, err = hexutil.DecodeBig(call.Amount); err != nil {
			return common.Address{}, nil, nil, fmt.Errorf("decode amount: %w", err)
		}
	}
	return common.HexToAddress(call.Recipient), data, value, nil
}
