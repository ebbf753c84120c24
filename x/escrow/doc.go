/*
Package escrow implements custody of funds for two party payments.

> An escrow is a financial arrangement where a third party holds and regulates
> payment of the funds required for two parties involved in a given transaction.

An escrow is created for an order between a customer and a merchant. The
customer deposits at least the declared amount of the escrow asset, which
is then held in custody. Funds leave custody in exactly one way:

	release             to the merchant, authorized by the release token
	refund              to the customer, authorized by the refund token
	emergency withdraw  to any recipient, after a dispute, by the admin

Release and refund tokens are issued when the escrow is created, one of
each. Presenting a token is not enough: the authorization context the
escrow is bound to must approve the disbursement as well.

Status transitions:

	Pending -> Funded -> Released | Refunded | Disputed
	Disputed -> EmergencyWithdrawn

Every operation on an escrow runs in its own serializable transaction and
appends an audit event as part of it.
*/
package escrow
