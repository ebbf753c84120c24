/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
Each bucket contains only one type of model, stored under
a primary key. Keys are either chosen by the caller or
allocated from a Sequence.
*/
package orm
