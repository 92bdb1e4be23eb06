// Package controller runs one input device and translates the raw messages
// it produces into named signals.
//
// The signal map is keyed by the message signature, the upper-case
// space-separated hex bytes of the message. Learning a signal (Register)
// takes the port away from the poll loop until one message arrives, then
// records its signature under the requested or an automatic label.
package controller
