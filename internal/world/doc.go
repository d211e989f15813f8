// Package world holds the spatial and identity primitives shared by the
// attachment registries: player identities, discrete block cells, precise
// locations with look direction, and block materials.
package world
