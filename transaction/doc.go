// Package transaction composes outbound device-control commands into the
// legacy transaction envelope.
//
// A command starts as a Request (read registers, write registers, or a well
// control action), is encoded into the binary wire buffer, paired with a
// collision-checked transaction id, and assembled into an UpdatePayload whose
// column layout legacy readers depend on. The composer never panics on
// expected failures; unresolved assets and unsupported actions come back as
// typed errors.
package transaction
