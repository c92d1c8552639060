// Package contract holds tests that pin down interfaces other parties depend
// on: the SQLite schema of deployed databases. It has no non-test code.
package contract
