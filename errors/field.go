package errors

import "fmt"

// Field returns an error that carries the name of the invalid field. Use it
// in Validate methods so the caller can tell which attribute was rejected.
//
// If err is nil, nil is returned.
func Field(name string, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &fieldError{
		field: name,
		err:   Wrapf(err, format, args...),
	}
}

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.field, e.err)
}

func (e *fieldError) Cause() error {
	return e.err
}

func (e *fieldError) Unwrap() error {
	return e.err
}

// Field returns the name of the field this error is about.
func (e *fieldError) Field() string {
	return e.field
}

// FieldName returns the name of the field the error is about, or an empty
// string if err does not carry field information.
func FieldName(err error) string {
	for err != nil {
		if fe, ok := err.(*fieldError); ok {
			return fe.field
		}
		c, ok := err.(causer)
		if !ok {
			return ""
		}
		err = c.Cause()
	}
	return ""
}

// FieldErrors returns all errors about the field with given name that
// err carries, looking into errors joined with Append.
func FieldErrors(err error, fieldName string) []error {
	if err == nil {
		return nil
	}
	if m, ok := err.(*multiErr); ok {
		var res []error
		for _, e := range m.errs {
			res = append(res, FieldErrors(e, fieldName)...)
		}
		return res
	}
	if FieldName(err) == fieldName {
		return []error{err}
	}
	return nil
}

// Append joins errors, ignoring nil values. It returns nil if all given
// errors are nil and the only error if one is non nil.
func Append(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	return &multiErr{errs: nonNil}
}

type multiErr struct {
	errs []error
}

func (m *multiErr) Error() string {
	msg := fmt.Sprintf("%d errors occurred:", len(m.errs))
	for _, e := range m.errs {
		msg += "\n\t* " + e.Error()
	}
	return msg
}

// Cause returns the first collected error.
func (m *multiErr) Cause() error {
	return m.errs[0]
}

// Errors returns all contained errors.
func (m *multiErr) Errors() []error {
	return m.errs
}
