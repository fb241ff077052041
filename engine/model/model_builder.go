package model

// QuadTileBuilderOption is a functional option for configuring a QuadTile via NewQuadTile.
type QuadTileBuilderOption func(*quadTile)

// WithCapacity is an option builder that sets the number of quads in the tile.
//
// Parameters:
//   - capacity: quads per instance; zero selects the default
//
// Returns:
//   - QuadTileBuilderOption: a function that applies the capacity option to a tile
func WithCapacity(capacity uint32) QuadTileBuilderOption {
	return func(t *quadTile) {
		t.capacity = capacity
	}
}

// WithBoundsSize is an option builder that sets the edge length of the tile's culling box.
//
// Parameters:
//   - size: the box edge length
//
// Returns:
//   - QuadTileBuilderOption: a function that applies the bounds option to a tile
func WithBoundsSize(size float32) QuadTileBuilderOption {
	return func(t *quadTile) {
		t.boundsSize = size
	}
}
