/*
Package errors implements coded errors for custody.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Extensions that need their
own kind call Register(code, description) during package initialization, for
example x/capability registers ErrCapabilityMismatch.

Create error instances with errors.Wrap(ErrXyz, "...") at the point of
creation so that a stacktrace is attached. If you wrap multiple times, only
the first wrap records the stacktrace.

Test an error kind with ErrXyz.Is(err). Once you have an error, %+v prints
the full stack trace and %s only the message.
*/
package errors
