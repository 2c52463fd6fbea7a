package evm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// AirdropABIJSON is the declared interface of the daily-claim contract.
const AirdropABIJSON = `[
  {"type":"function","name":"claim","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"lastClaimed","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"claimCooldown","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"claimAmount","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"astraToken","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
]`

const erc20BalanceABIJSON = `[{"constant":true,"type":"function","name":"balanceOf","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view"}]`

const (
	MethodClaim         = "claim"
	MethodLastClaimed   = "lastClaimed"
	MethodClaimCooldown = "claimCooldown"
	MethodClaimAmount   = "claimAmount"
	// MethodRewardToken resolves the companion ERC20 the contract pays out.
	MethodRewardToken = "astraToken"
	MethodBalanceOf   = "balanceOf"
)

var (
	AirdropABI = mustParseABI(AirdropABIJSON)
	ERC20ABI   = mustParseABI(erc20BalanceABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// ClaimSelector is the 4-byte selector of the zero-argument claim().
func ClaimSelector() []byte {
	return AirdropABI.Methods[MethodClaim].ID
}

// CallABI packs method, runs an eth_call against to and unpacks the outputs.
func CallABI(ctx context.Context, reader ChainReader, contractABI abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return vals, nil
}
