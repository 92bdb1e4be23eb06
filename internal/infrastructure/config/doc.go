// Package config handles loading and validating midiplexer configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The routing document (devices, tracks, scenes and signal maps) is not part
// of this configuration. It lives in the JSON file named by
// plexer.routing_file and is owned by package routing.
//
// Usage:
//
//	cfg, err := config.Load("/etc/midiplexer/config.yaml", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Plexer.RoutingFile)
package config
