/*
Package x contains the custody extensions.

Each sub-package implements one concern (escrow lifecycle, capabilities,
authorization, audit log, wallet) on top of the custody store interfaces.
This package itself holds the pieces shared by all of them, most notably
the Authenticator used to tell who is invoking an operation.
*/
package x
