package asset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/errors"
)

type iov struct{}

func (iov) Ticker() string { return "IOV" }

type eth struct{}

func (eth) Ticker() string { return "ETH" }

func TestAmountArithmetic(t *testing.T) {
	cases := map[string]struct {
		a, b    Amount
		sub     bool
		want    Amount
		wantErr *errors.Error
	}{
		"add": {
			a:    NewAmount(3, "IOV"),
			b:    NewAmount(4, "IOV"),
			want: NewAmount(7, "IOV"),
		},
		"add overflow": {
			a:       NewAmount(math.MaxUint64, "IOV"),
			b:       NewAmount(1, "IOV"),
			wantErr: errors.ErrOverflow,
		},
		"add different assets": {
			a:       NewAmount(1, "IOV"),
			b:       NewAmount(1, "ETH"),
			wantErr: errors.ErrAssetType,
		},
		"subtract": {
			a:    NewAmount(10, "IOV"),
			b:    NewAmount(4, "IOV"),
			sub:  true,
			want: NewAmount(6, "IOV"),
		},
		"subtract too much": {
			a:       NewAmount(1, "IOV"),
			b:       NewAmount(4, "IOV"),
			sub:     true,
			wantErr: errors.ErrInsufficientAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				got Amount
				err error
			)
			if tc.sub {
				got, err = tc.a.Subtract(tc.b)
			} else {
				got, err = tc.a.Add(tc.b)
			}
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("100 IOV")
	require.NoError(t, err)
	assert.Equal(t, NewAmount(100, "IOV"), a)
	assert.Equal(t, "100 IOV", a.String())

	_, err = ParseAmount("100")
	assert.True(t, errors.ErrInput.Is(err))
	_, err = ParseAmount("-1 IOV")
	assert.True(t, errors.ErrAmount.Is(err))
	_, err = ParseAmount("1 iov")
	assert.True(t, errors.ErrAssetType.Is(err))
}

func TestBalanceIsTyped(t *testing.T) {
	b := NewBalance[iov](40)
	assert.Equal(t, "IOV", b.Ticker())
	assert.Equal(t, NewAmount(40, "IOV"), b.Amount())

	more, err := b.Join(NewBalance[iov](2))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), more.Value())

	_, err = BalanceOf[eth](NewAmount(1, "IOV"))
	assert.True(t, errors.ErrAssetType.Is(err))

	e, err := BalanceOf[eth](NewAmount(5, "ETH"))
	require.NoError(t, err)
	assert.Equal(t, "5 ETH", e.String())
}
