package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
)

func newRequest(authorizer custody.Address) *Request {
	return &Request{
		AuthorizerID: authorizer,
		Action:       ActionRelease,
		EscrowID:     custodytest.SequenceID(1),
		OrderID:      []byte("order-42"),
		Amount:       250,
		AssetType:    "IOV",
		DepositedAt:  custody.Timestamp(1000),
	}
}

func TestAllowAllAndAll(t *testing.T) {
	ctx := context.Background()
	req := newRequest(custodytest.NewCondition().Address())

	ok, err := AllowAll{}.Authorize(ctx, req)
	require.NoError(t, err)
	assert.True(t, ok)

	deny := Func(func(context.Context, *Request) (bool, error) { return false, nil })
	fail := Func(func(context.Context, *Request) (bool, error) {
		return false, errors.Wrap(errors.ErrDatabase, "unavailable")
	})

	ok, err = All{AllowAll{}, AllowAll{}}.Authorize(ctx, req)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = All{AllowAll{}, deny}.Authorize(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = All{fail, AllowAll{}}.Authorize(ctx, req)
	assert.True(t, errors.ErrDatabase.Is(err))
	assert.False(t, ok)

	ok, err = All{}.Authorize(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEd25519(t *testing.T) {
	ctx := context.Background()
	key := custodytest.NewKey()
	a := NewEd25519(key.PublicKey())

	req := newRequest(a.Address())
	proof, err := Prove(key, req)
	require.NoError(t, err)
	req.Proof = proof

	ok, err := a.Authorize(ctx, req)
	require.NoError(t, err)
	assert.True(t, ok)

	// Any change of the request invalidates the proof.
	refund := *req
	refund.Action = ActionRefund
	ok, err = a.Authorize(ctx, &refund)
	require.NoError(t, err)
	assert.False(t, ok)

	// Proof of another key.
	forged := *req
	forged.Proof, err = Prove(custodytest.NewKey(), req)
	require.NoError(t, err)
	ok, err = a.Authorize(ctx, &forged)
	require.NoError(t, err)
	assert.False(t, ok)

	// Request bound to another authorization context.
	other := *req
	other.AuthorizerID = custodytest.NewCondition().Address()
	ok, err = a.Authorize(ctx, &other)
	require.NoError(t, err)
	assert.False(t, ok)

	noProof := *req
	noProof.Proof = nil
	ok, err = a.Authorize(ctx, &noProof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignBytesIgnoreProof(t *testing.T) {
	req := newRequest(custodytest.NewCondition().Address())
	a, err := SignBytes(req)
	require.NoError(t, err)
	req.Proof = []byte("proof")
	b, err := SignBytes(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), SignDomain+`{"action":"release"`)
}

func TestCEL(t *testing.T) {
	c, err := NewCEL(0)
	require.NoError(t, err)

	now := time.Unix(100, 0)
	ctx := custody.WithNow(context.Background(), now)

	cases := map[string]struct {
		policy  string
		action  Action
		wantOK  bool
		wantErr *errors.Error
	}{
		"empty policy denies": {
			policy: "",
			action: ActionRelease,
		},
		"constant true": {
			policy: "true",
			action: ActionRelease,
			wantOK: true,
		},
		"refund only": {
			policy: `action == "refund"`,
			action: ActionRelease,
		},
		"amount limit": {
			policy: `amount <= 250 && asset_type == "IOV"`,
			action: ActionRelease,
			wantOK: true,
		},
		"time lock passed": {
			policy: `action == "release" && now - deposited_at >= 99000`,
			action: ActionRelease,
			wantOK: true,
		},
		"time lock not passed": {
			policy: `now - deposited_at >= 100000`,
			action: ActionRelease,
		},
		"order id": {
			policy: `order_id.startsWith("order-")`,
			action: ActionRefund,
			wantOK: true,
		},
		"not a bool": {
			policy:  `amount + 1`,
			action:  ActionRelease,
			wantErr: errors.ErrInput,
		},
		"syntax error": {
			policy:  `amount >`,
			action:  ActionRelease,
			wantErr: errors.ErrInput,
		},
		"unknown variable": {
			policy:  `balance > 0`,
			action:  ActionRelease,
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			req := newRequest(custodytest.NewCondition().Address())
			req.Policy = []byte(tc.policy)
			req.Action = tc.action

			ok, err := c.Authorize(ctx, req)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestCheckPolicy(t *testing.T) {
	c, err := NewCEL(0)
	require.NoError(t, err)

	withPolicy := custodytest.NewCondition().Address()
	plain := custodytest.NewCondition().Address()
	r := NewRouter()
	require.NoError(t, r.Register(withPolicy, All{AllowAll{}, c}))
	require.NoError(t, r.Register(plain, AllowAll{}))

	cases := map[string]struct {
		authorizer Authorizer
		addr       custody.Address
		policy     string
		wantErr    *errors.Error
	}{
		"valid expression": {
			authorizer: c,
			policy:     `caller != ""`,
		},
		"syntax error": {
			authorizer: c,
			policy:     `1 +`,
			wantErr:    errors.ErrInput,
		},
		"not a bool": {
			authorizer: c,
			policy:     `amount + 1`,
			wantErr:    errors.ErrInput,
		},
		"empty policy": {
			authorizer: c,
			wantErr:    errors.ErrEmpty,
		},
		"authorizer ignoring policies": {
			authorizer: AllowAll{},
			policy:     `1 +`,
		},
		"all checks every member": {
			authorizer: All{AllowAll{}, c},
			policy:     `1 +`,
			wantErr:    errors.ErrInput,
		},
		"routed to a policy authorizer": {
			authorizer: r,
			addr:       withPolicy,
			policy:     `1 +`,
			wantErr:    errors.ErrInput,
		},
		"routed to an authorizer ignoring policies": {
			authorizer: r,
			addr:       plain,
			policy:     `1 +`,
		},
		"unknown route": {
			authorizer: r,
			addr:       custodytest.NewCondition().Address(),
			policy:     `1 +`,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := CheckPolicy(tc.authorizer, tc.addr, []byte(tc.policy))
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestCELCostLimit(t *testing.T) {
	c, err := NewCEL(5)
	require.NoError(t, err)

	req := newRequest(custodytest.NewCondition().Address())
	req.Policy = []byte(`[1, 2, 3, 4, 5, 6, 7, 8, 9, 10].all(x, [1, 2, 3, 4, 5, 6, 7, 8, 9, 10].all(y, x * y > 0))`)
	ok, err := c.Authorize(context.Background(), req)
	assert.True(t, errors.ErrInput.Is(err))
	assert.False(t, ok)
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	r := NewRouter()

	allowed := custodytest.NewCondition().Address()
	require.NoError(t, r.Register(allowed, AllowAll{}))
	assert.True(t, errors.ErrDuplicate.Is(r.Register(allowed, AllowAll{})))
	assert.True(t, errors.ErrInput.Is(r.Register(custody.Address("short"), AllowAll{})))
	assert.True(t, r.Has(allowed))

	ok, err := r.Authorize(ctx, newRequest(allowed))
	require.NoError(t, err)
	assert.True(t, ok)

	unknown := custodytest.NewCondition().Address()
	assert.False(t, r.Has(unknown))
	ok, err = r.Authorize(ctx, newRequest(unknown))
	require.NoError(t, err)
	assert.False(t, ok)
}
