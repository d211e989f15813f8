// Package attach defines the attachment states a player can enter (crawl and
// pose), the reasons a state may be stopped, and the contracts of the
// collaborators the registries depend on. The registries themselves live in
// internal/crawl and internal/pose.
package attach
