/*
Package wallet keeps asset balances of parties in the custody store. It is
the reference Bank of the escrow package: deposits are debited from the
customer wallet and disbursements credited to the recipient wallet within
the escrow transaction.
*/
package wallet
