/*
Package capability issues and consumes the tokens that authorize escrow
disbursements.

A token can only be created by the Store, which draws a random secret and
records its blake3 digest. Whoever holds the token (and so knows the
secret) can present it once: consuming a token writes a tombstone next to
its record, so copies of a consumed token are rejected as well.

Every escrow gets exactly one release and one refund token when it is
created. A single admin token, minted once at genesis, authorizes dispute
and emergency withdrawal of any escrow and is never consumed.
*/
package capability
