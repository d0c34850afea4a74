package types

import (
	"fmt"

	"github.com/emblem-network/emblemx/pkg/utils"
)

// HexCodec is the default chain address codec: 0x-prefixed 20-byte hex,
// canonicalized to lowercase. The engine only ever talks to it through the
// accounts.AddressCodec interface.
type HexCodec struct{}

func (HexCodec) IsValidAddress(s string) bool {
	return utils.IsValidAddress(s)
}

func (HexCodec) ConvertToAddress(s string) (string, error) {
	if !utils.IsValidAddress(s) {
		return "", fmt.Errorf("invalid address: %q", s)
	}
	return utils.NormalizeAddress(s), nil
}
