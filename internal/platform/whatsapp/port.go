// Package whatsapp manages per-hospital WhatsApp sessions and message
// delivery. Each hospital pairs its own WhatsApp account by scanning a QR
// code; the session then stays open for confirmations, reminders and
// follow-ups until the hospital closes it.
package whatsapp

import (
	"context"
	"errors"
)

// Status describes the lifecycle of a hospital's session.
type Status string

const (
	StatusExpired      Status = "expired"
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
)

var (
	// ErrSessionUnavailable is returned when a send is attempted for a
	// hospital whose session is not ready.
	ErrSessionUnavailable = errors.New("whatsapp session unavailable")

	// ErrNoSession is returned when no session exists for the hospital.
	ErrNoSession = errors.New("no whatsapp session")
)

// Port is the device gateway for a single hospital's WhatsApp account.
// Implementations talk to whatever transport actually moves the message;
// tests use an in-memory fake.
type Port interface {
	// Open starts pairing and returns the QR payload the hospital scans.
	// Pairing completes asynchronously; poll Ready to observe it.
	Open(ctx context.Context) (qr string, err error)

	// Ready reports whether the session is paired and able to send.
	Ready(ctx context.Context) (bool, error)

	// Send delivers a text message to the given phone number.
	Send(ctx context.Context, to, body string) error

	// Close tears the session down.
	Close(ctx context.Context) error
}

// PortFactory builds a Port for a hospital. The manager calls it once per
// session open.
type PortFactory func(hospitalID string) Port
