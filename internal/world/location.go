package world

import (
	"fmt"
	"math"
)

// Cell is a discrete block position. It is comparable and used as a map key.
type Cell struct {
	World string
	X     int
	Y     int
	Z     int
}

func (c Cell) String() string {
	return fmt.Sprintf("%s(%d,%d,%d)", c.World, c.X, c.Y, c.Z)
}

// Center returns the location at the horizontal center of the cell's floor.
func (c Cell) Center() Location {
	return Location{World: c.World, X: float64(c.X) + 0.5, Y: float64(c.Y), Z: float64(c.Z) + 0.5}
}

// Location is a precise position with a look direction.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
	Yaw   float32
	Pitch float32
}

// Add returns l translated by the given offsets; rotation is preserved.
func (l Location) Add(dx, dy, dz float64) Location {
	l.X += dx
	l.Y += dy
	l.Z += dz
	return l
}

// WithRotation returns l with the given yaw and pitch.
func (l Location) WithRotation(yaw, pitch float32) Location {
	l.Yaw = yaw
	l.Pitch = pitch
	return l
}

// Cell returns the block cell containing l.
func (l Location) Cell() Cell {
	return Cell{
		World: l.World,
		X:     int(math.Floor(l.X)),
		Y:     int(math.Floor(l.Y)),
		Z:     int(math.Floor(l.Z)),
	}
}

func (l Location) String() string {
	return fmt.Sprintf("%s(%.2f,%.2f,%.2f yaw=%.1f pitch=%.1f)", l.World, l.X, l.Y, l.Z, l.Yaw, l.Pitch)
}
