package algorand

import (
	"errors"
	"testing"
)

func TestParseAddress_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"37VPAD3CK7CDHRE4U3J75IE4HLFN5ZWVKJ52YFNBX753NNDN6PUP2N7YKI",
		"44GWRTQGSAYUJJCQ3GFINYKZXMBDVKCF75VMCXKORN7ZJ6BKPNG2RMGH7E",
	} {
		a, err := ParseAddress(s)
		if err != nil {
			t.Fatalf("ParseAddress(%s): %v", s, err)
		}
		if a.String() != s {
			t.Errorf("round trip: expected %s, got %s", s, a.String())
		}
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	valid := "37VPAD3CK7CDHRE4U3J75IE4HLFN5ZWVKJ52YFNBX753NNDN6PUP2N7YKI"
	tampered := []byte(valid)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	cases := map[string]string{
		"empty":    "",
		"short":    valid[:57],
		"alphabet": "1" + valid[1:],
		"checksum": string(tampered),
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddress(s)
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestAddress_ZeroKey(t *testing.T) {
	var zero Address
	parsed, err := ParseAddress(zero.String())
	if err != nil {
		t.Fatalf("ParseAddress(zero): %v", err)
	}
	if parsed != zero {
		t.Errorf("expected zero address")
	}
	// The all-zero encoding is y=0, a valid curve point.
	if !zero.IsEd25519Key() {
		t.Errorf("expected zero key to decode as a curve point")
	}
}
