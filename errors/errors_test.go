package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrInvalidState,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      Wrap(ErrNotFound, "gone"),
			wantIs: true,
		},
		"doubly wrapped error": {
			a:      ErrUnauthorized,
			b:      Wrap(Wrap(ErrUnauthorized, "inner"), "outer"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrUnauthorized,
			b:      Wrap(ErrNotFound, "gone"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*wrappedError)(nil),
			wantIs: true,
		},
		"field error is its cause": {
			a:      ErrEmpty,
			b:      Field("Owner", ErrEmpty, "required"),
			wantIs: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, Field("x", nil, "nothing"))
}

func TestWrapMessage(t *testing.T) {
	err := Wrapf(ErrInvalidState, "escrow %d", 7)
	assert.Equal(t, "escrow 7: invalid state", err.Error())
	assert.True(t, stdlib.Is(err, ErrInvalidState))
}

func TestCode(t *testing.T) {
	assert.Equal(t, uint32(0), Code(nil))
	assert.Equal(t, uint32(2), Code(ErrUnauthorized))
	assert.Equal(t, uint32(10), Code(Wrap(ErrInvalidState, "x")))
	assert.Equal(t, uint32(1), Code(fmt.Errorf("foreign")))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register(ErrNotFound.Code(), "again") })
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := fn()
	assert.True(t, ErrPanic.Is(err))
	assert.Equal(t, ErrPanic, Redact(err))
}

func TestStackTraceFormat(t *testing.T) {
	err := Wrap(ErrNotFound, "lost")
	full := fmt.Sprintf("%+v", err)
	assert.True(t, strings.Contains(full, "errors_test.go"), full)
	assert.Equal(t, "lost: not found", fmt.Sprintf("%v", err))
}

func TestAppend(t *testing.T) {
	assert.Nil(t, Append(nil, nil))

	single := Wrap(ErrEmpty, "a")
	assert.Equal(t, single, Append(nil, single))

	multi := Append(Field("A", ErrEmpty, "a"), nil, Field("B", ErrAmount, "b"))
	assert.True(t, ErrEmpty.Is(multi))
	assert.Equal(t, "A", FieldName(multi))
	assert.True(t, strings.HasPrefix(multi.Error(), "2 errors occurred"))
}
