package crypto

import (
	"encoding/hex"
	"fmt"
)

// XORKey is the 16-byte key of the v12 chained XOR scheme.
var XORKey = [16]byte{
	0xD1, 0x73, 0x52, 0xF6, 0xD2, 0x9A, 0xCB, 0x27,
	0x3E, 0xAF, 0x59, 0x31, 0x37, 0xB3, 0xE7, 0xA2,
}

// LEAKey is the LEA-256 key used for v15 files. Override with SetLEAKeyHex
// when a client build ships a different key.
var LEAKey = [32]byte([]byte("webzen#@!01webzen#@!01webzen#@!0"))

// LEAKeyDelta holds the LEA key schedule constants.
var LEAKeyDelta = [8]uint32{
	0xc3efe9db, 0x44626b02, 0x79e27c8a, 0x78df30ec,
	0x715ea49e, 0xc785da0a, 0xe04ef22a, 0xe5c40957,
}

// SetLEAKeyHex replaces LEAKey with a 64-character hex string.
func SetLEAKeyHex(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("crypto: lea key: %w", err)
	}
	if len(b) != len(LEAKey) {
		return fmt.Errorf("crypto: lea key must be %d bytes, got %d", len(LEAKey), len(b))
	}
	copy(LEAKey[:], b)
	return nil
}
