// Package trace records the raw serial conversation with the panel.
//
// Every status line read from the module and every command written to it is
// stored as a Record in an append-only CBOR file. Records use integer map keys
// and RFC 3339 timestamps with nanosecond precision, so a capture stays compact
// and can be replayed or filtered offline with Reader.
//
// User codes are redacted before they reach the file.
package trace
