// Package model provides the data structures for the pipeview package.
// It defines the pipeline document returned by the backend, the jobs it contains
// and the integrity checks that can be displayed alongside it.
package model
