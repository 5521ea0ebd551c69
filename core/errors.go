package core

import "errors"

var (
	// ErrConfiguration is returned when the caller's input contradicts the engine's
	// identity or configuration (sender/signer mismatch, missing credential)
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection is returned when the transport fails to open or send
	ErrConnection = errors.New("connection error")

	// ErrConnectionClosed is returned when the connection closes before settlement
	ErrConnectionClosed = errors.New("connection closed before settlement")

	// ErrAuth is returned when the authentication handshake is rejected
	ErrAuth = errors.New("authentication failed")

	// ErrMissingChallenge is returned when an auth_challenge frame carries no challenge
	ErrMissingChallenge = errors.New("auth challenge frame carries no challenge")

	// ErrNoChannel is returned when no channel matches the selection predicate
	ErrNoChannel = errors.New("no usable channel")

	// ErrSession is returned when the node rejects a session open or close
	ErrSession = errors.New("session rejected")

	// ErrMissingAllocations is returned when a close result omits its allocations
	ErrMissingAllocations = errors.New("close result is missing allocations")

	// ErrInsufficientFunds is a distinguished session error for underfunded transfers
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTimeout is returned when the transfer deadline expires
	ErrTimeout = errors.New("transfer timed out")

	// ErrProtocol is returned when a frame does not match any recognized shape
	ErrProtocol = errors.New("protocol error")

	// ErrExchangePending is returned when a second exchange is attempted while one
	// is still awaiting its response on the same connection
	ErrExchangePending = errors.New("exchange already pending on connection")

	// ErrNotFound is returned by stores when a record does not exist
	ErrNotFound = errors.New("record not found")
)
