package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"bad checksum", "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"short", "0x1234", false},
		{"no prefix", "1f53330bc66d9e38e4fe4561d515a73ed59787b6", false},
		{"empty", "", false},
		{"non hex", "0xzz53330bc66d9e38e4fe4561d515a73ed59787b6", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.address))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		NormalizeAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"))
}
