package core

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Flow addresses are 8 bytes, rendered as 0x followed by 16 hex characters.
const addressByteLen = 8

// ParseAddress validates a Flow wallet address and returns it in normalized
// lowercase form.
func ParseAddress(s string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	raw, err := hexutil.Decode(trimmed)
	if err != nil {
		return "", ErrInvalidAddress
	}
	if len(raw) != addressByteLen {
		return "", ErrInvalidAddress
	}
	return "0x" + hex.EncodeToString(raw), nil
}
