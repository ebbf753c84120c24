/*
Package authz defines the contract of the external authorization context
consulted before escrow funds are released or refunded.

An escrow is created with the address of an authorization context and an
opaque policy. When a release or refund is requested, the Authorizer
registered for that address is called exactly once with a Request
describing the operation and the proof supplied by the caller. Denial and
failure are treated the same way: the operation does not happen.
Authorizers that interpret the policy also implement PolicyChecker, so an
escrow whose policy can never be evaluated is rejected when it is created.

Reference implementations:

	AllowAll  approves everything, for tests and trusted setups
	CEL       evaluates the escrow policy as a CEL boolean expression
	Ed25519   requires the proof to be a signature of a known key
	All       approves only if every wrapped authorizer approves
	Router    dispatches by authorizer address, unknown addresses deny
*/
package authz
