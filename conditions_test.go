package custody

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/errors"
)

func TestConditionParse(t *testing.T) {
	cases := map[string]struct {
		cond    Condition
		wantExt string
		wantTyp string
		wantErr *errors.Error
	}{
		"valid": {
			cond:    NewCondition("sigs", "ed25519", []byte{1, 2, 3}),
			wantExt: "sigs",
			wantTyp: "ed25519",
		},
		"missing data": {
			cond:    Condition("sigs/ed25519/"),
			wantErr: errors.ErrInput,
		},
		"extension too short": {
			cond:    NewCondition("ab", "ed25519", []byte{1}),
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ext, typ, _, err := tc.cond.Parse()
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExt, ext)
			assert.Equal(t, tc.wantTyp, typ)
		})
	}
}

func TestAddressFormats(t *testing.T) {
	cond := NewCondition("escrow", "seq", []byte{0, 0, 0, 0, 0, 0, 0, 1})
	addr := cond.Address()
	require.NoError(t, addr.Validate())

	b32, err := addr.Bech32()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b32, AddressPrefix+"1"))

	cases := map[string]string{
		"hex":          addr.String(),
		"prefixed hex": "hex:" + addr.String(),
		"bech32":       b32,
		"prefixed b32": "bech32:" + b32,
		"condition":    "cond:" + cond.String(),
	}
	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAddress(enc)
			require.NoError(t, err)
			assert.Equal(t, addr, got)
		})
	}

	_, err = ParseAddress("1234")
	assert.True(t, errors.ErrInput.Is(err))
	_, err = ParseAddress("xyz:1234")
	assert.True(t, errors.ErrType.Is(err))
}

func TestAddressJSON(t *testing.T) {
	addr := NewAddress([]byte("alice"))
	raw, err := json.Marshal(addr)
	require.NoError(t, err)

	var got Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)

	require.NoError(t, json.Unmarshal([]byte(`""`), &got))
	assert.Nil(t, got)
}
