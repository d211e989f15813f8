package world

import "strings"

// Material names a block type, e.g. "OAK_STAIRS".
type Material string

const Air Material = "AIR"

// Shape is the collision shape family of a block.
type Shape int

const (
	ShapeFull Shape = iota
	ShapeSlab
	ShapeStairs
	ShapeCarpet
	ShapeEmpty
)

func (s Shape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapeSlab:
		return "slab"
	case ShapeStairs:
		return "stairs"
	case ShapeCarpet:
		return "carpet"
	case ShapeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Height is the top surface of the shape relative to the cell floor.
func (s Shape) Height() float64 {
	switch s {
	case ShapeSlab, ShapeStairs:
		return 0.5
	case ShapeCarpet:
		return 0.0625
	case ShapeEmpty:
		return 0
	default:
		return 1
	}
}

// Block is the content of a cell.
type Block struct {
	Material Material
	Shape    Shape
}

// IsStairs reports whether the block belongs to the stairs family.
func (b Block) IsStairs() bool { return b.Shape == ShapeStairs }

// ShapeOf infers a shape from a material name using the usual naming suffixes.
func ShapeOf(m Material) Shape {
	name := strings.ToUpper(string(m))
	switch {
	case m == Air || name == "":
		return ShapeEmpty
	case strings.HasSuffix(name, "_STAIRS"):
		return ShapeStairs
	case strings.HasSuffix(name, "_SLAB"):
		return ShapeSlab
	case strings.HasSuffix(name, "_CARPET"):
		return ShapeCarpet
	default:
		return ShapeFull
	}
}
