// Package client runs one output device and the tracks it exposes.
//
// A Worker owns its tracks outright: the router reaches them only through
// events (drive tracks to a state) and commands (create, list, snapshot,
// arm). Commands are always handled before the next event so a front-end
// edit is visible to the very next signal.
//
// Event rules:
//   - Toggle flips each listed track and sends its message.
//   - Play and Stop drive the listed tracks (or all of them) to that state,
//     then drive every other track to the opposite state.
//   - An unknown label abandons the event before any track is touched.
package client
