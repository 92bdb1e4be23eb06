// Package routing holds the routing tables and their JSON document.
//
// Tables map (controller, signal) pairs to trigger targets, scenes and the
// mode switch, and hold the scene definitions. The plexer owns the only
// live copy; everything else sees clones.
//
// The document adds the device definitions (clients with their tracks,
// controllers with their signal maps). It is written atomically by Save and
// read by Load, which treats a missing file as empty.
package routing
