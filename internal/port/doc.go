// Package port is the device boundary of the router.
//
// An Input is a source of MIDI messages (a controller), an Output is a sink
// (a client). Both are opened by port type and name through a Registry that
// holds one Driver per type:
//
//   - "midi": an ALSA raw MIDI character device such as /dev/snd/midiC1D0.
//   - "virtual": an in-process bus; every Output named X feeds every Input
//     named X. Useful for dry runs and for chaining.
//   - "mqtt": a remote port carried over the broker as hex signatures.
//
// Inputs buffer parsed messages on a channel filled by a reader goroutine,
// so Poll never blocks longer than the wait it is given.
package port
