/*
Package audit keeps the append-only log of escrow transitions.

Every successful transition appends exactly one Event. Events are stored
in the same transaction as the transition they describe, so a failed
transition never leaves an event behind and a committed one always has
its event. Once the transaction is written, events are handed to a Sink
in the order they were appended.

Events of a single escrow are numbered starting from 1. A Log configured
with a signer attaches an ed25519 signature to every event, computed over
the domain tag "custody/audit/v1" followed by the canonical (RFC 8785)
JSON form of the event.
*/
package audit
