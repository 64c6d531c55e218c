// Package config loads the asyncpool node configuration.
//
// Configuration is YAML. After decoding, the values are checked against an
// embedded CUE schema (schema.cue) and then against the pool's own bounds,
// so an invalid file is rejected before any store is opened.
package config
