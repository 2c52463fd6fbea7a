package validation

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidAddress accepts a 0x-prefixed 20-byte hex address. All-lowercase and
// all-uppercase forms are accepted as-is; mixed case must carry a valid EIP-55 checksum.
func IsValidAddress(address string) bool {
	if err := validate.Var(address, "required,eth_addr"); err != nil {
		return false
	}
	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(address).Hex() == address
}

// NormalizeAddress returns the checksummed form used for storage keys and logs.
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// ValidateStruct runs `validate` tags on request payloads.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
