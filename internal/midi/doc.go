// Package midi models MIDI 1.0 channel, system common and real-time messages.
//
// It provides three things the router needs from the wire format:
//
//   - Compose builds a Message from layered field maps, the way a track turns
//     its stored defaults plus a one-shot override into something to send.
//   - Bytes/Hex encode a Message. Hex is the canonical signal signature used
//     as the key of a controller's signal map ("B0 14 7F").
//   - Parser turns a raw byte stream from a device into messages, handling
//     running status, system exclusive and interleaved real-time bytes.
//
// Field names follow the routing document: channel, note, velocity, value,
// control, program, pitch, data, frame_type, frame_value, pos, song.
package midi
