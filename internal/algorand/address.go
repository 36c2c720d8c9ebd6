package algorand

import (
	"bytes"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	publicKeyLen = 32
	checksumLen  = 4
	addressLen   = 58 // base32 of 36 bytes, unpadded
)

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrInvalidAddress is returned for malformed account addresses.
var ErrInvalidAddress = errors.New("invalid algorand address")

// Address is a decoded account address.
type Address [publicKeyLen]byte

// ParseAddress decodes and checksums a 58-character account address.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != addressLen {
		return a, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(s))
	}

	raw, err := addressEncoding.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	copy(a[:], raw[:publicKeyLen])
	if !bytes.Equal(raw[publicKeyLen:], a.checksum()) {
		return a, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return a, nil
}

// String encodes the address with its checksum.
func (a Address) String() string {
	return addressEncoding.EncodeToString(append(a[:], a.checksum()...))
}

// IsEd25519Key reports whether the address bytes decode to a point on the
// ed25519 curve. Single-key accounts always do; multisig and logic-sig
// accounts are hashes and usually do not.
func (a Address) IsEd25519Key() bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// checksum is the last 4 bytes of SHA-512/256 over the public key.
func (a Address) checksum() []byte {
	sum := sha512.Sum512_256(a[:])
	return sum[len(sum)-checksumLen:]
}
