package x

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
)

func TestAuth(t *testing.T) {
	a := custodytest.NewCondition()
	b := custodytest.NewCondition()
	c := custodytest.NewCondition()

	ctx1 := &custodytest.CtxAuth{Key: "foo"}
	ctx2 := &custodytest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          context.Context
		auth         Authenticator
		mainSigner   custody.Condition
		wantInCtx    custody.Condition
		wantNotInCtx custody.Condition
		wantAll      []custody.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &custodytest.Auth{},
			wantNotInCtx: a,
		},
		"single signer": {
			ctx:          context.Background(),
			auth:         &custodytest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []custody.Condition{a},
		},
		"chained context authenticators": {
			ctx:          ctx2.SetConditions(ctx1.SetConditions(context.Background(), a, b), c),
			auth:         ChainAuth(ctx1, ctx2),
			mainSigner:   a,
			wantInCtx:    c,
			wantNotInCtx: custodytest.NewCondition(),
			wantAll:      []custody.Condition{a, b, c},
		},
		"chained authenticators drop duplicates": {
			ctx:        context.Background(),
			auth:       ChainAuth(&custodytest.Auth{Signer: a}, &custodytest.Auth{Signers: []custody.Condition{a, b}}),
			mainSigner: a,
			wantInCtx:  b,
			wantAll:    []custody.Condition{a, b},
		},
		"context auth": {
			ctx:          WithConditions(WithConditions(context.Background(), b), c),
			auth:         ContextAuth{},
			mainSigner:   b,
			wantInCtx:    c,
			wantNotInCtx: a,
			wantAll:      []custody.Condition{b, c},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil {
				if !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
					t.Fatal("condition not authenticated")
				}
			}
			if tc.wantNotInCtx != nil {
				if tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
					t.Fatal("unexpected condition authenticated")
				}
			}
			assert.Equal(t, tc.wantAll, tc.auth.GetConditions(tc.ctx))

			addrs := GetAddresses(tc.ctx, tc.auth)
			assert.Equal(t, len(tc.wantAll), len(addrs))
			for _, a := range addrs {
				if !tc.auth.HasAddress(tc.ctx, a) {
					t.Fatalf("address %s not authenticated", a)
				}
			}
		})
	}
}
