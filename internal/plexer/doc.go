// Package plexer is the router at the centre of midiplexer.
//
// A Plexer owns the mode, the routing tables and one worker per device.
// Controllers push signals onto a shared channel; the plexer looks each one
// up and sends events to client workers. Front-ends talk to it only through
// commands, which are applied in order on the plexer goroutine before any
// pending signal, so an edit always takes effect for the next signal.
//
// Each tick drains commands, then signals. A mode-switch signal flips the
// mode and ends the signal drain for that tick. When a tick had nothing to
// do, the status is published to a single-slot channel and the loop sleeps
// for the idle interval.
//
// Scene activation is idempotent: every running client the scene names is
// told to play exactly those tracks and stop the rest, and every other
// running client is told to stop everything.
package plexer
