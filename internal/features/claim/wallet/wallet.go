// Package wallet defines the command interface of the wallet bridge and the
// closed set of request shapes it accepts for a claim.
package wallet

import (
	"context"
	"encoding/json"
)

// Shape names one request encoding the bridge may accept.
type Shape string

const (
	// ShapeContractCall is an ABI-described call: {"transaction":[{address, abi, functionName, args}]}.
	ShapeContractCall Shape = "contract_call"
	// ShapeRawCall is a low-level call: {"transactions":[{recipient, calldata, amount}]}.
	ShapeRawCall Shape = "raw_call"
)

// Request is one of ContractCallRequest or RawCallRequest.
type Request interface {
	Shape() Shape
	request()
}

type ContractCall struct {
	Address      string            `json:"address"`
	ABI          []json.RawMessage `json:"abi"`
	FunctionName string            `json:"functionName"`
	Args         []interface{}     `json:"args"`
}

type ContractCallRequest struct {
	Transaction []ContractCall `json:"transaction"`
}

func (ContractCallRequest) Shape() Shape { return ShapeContractCall }
func (ContractCallRequest) request()     {}

type RawCall struct {
	Recipient string `json:"recipient"`
	Calldata  string `json:"calldata"`
	// Amount is the attached value as a 0x-prefixed hex quantity.
	Amount string `json:"amount"`
}

type RawCallRequest struct {
	Transactions []RawCall `json:"transactions"`
}

func (RawCallRequest) Shape() Shape { return ShapeRawCall }
func (RawCallRequest) request()     {}

// Bridge is the wallet's command interface. SendTransaction returns the
// bridge's response verbatim; its structure is implementation-defined.
type Bridge interface {
	Installed(ctx context.Context) bool
	SendTransaction(ctx context.Context, req Request) (json.RawMessage, error)
}

// CapabilityReporter is implemented by bridges that can tell which shapes
// they accept before anything is submitted.
type CapabilityReporter interface {
	SupportedShapes(ctx context.Context) ([]Shape, error)
}
