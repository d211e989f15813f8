// Package sim is an in-memory world used by the CLI and by tests. It stores
// blocks per cell, tracks player sessions and markers, and implements the
// factory, seat locator and terrain collaborators the registries need.
//
// A World is owned by the host loop and is not safe for concurrent use.
package sim
