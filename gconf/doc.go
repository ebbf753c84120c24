/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each package saves its configuration model as a singleton under the
"_c:<package>" key, usually from the genesis options. Reading the
configuration inside a transaction guarantees that all operations of that
transaction see the same values.
*/
package gconf
