package render

// RGB is a packed byte triple.
type RGB [3]uint8

// Black is the zero color; as a background it means transparent/default.
var Black = RGB{}

// Cell is one glyph-grid entry: a character and two colors.
type Cell struct {
	Ch rune
	Fg RGB
	Bg RGB
}

// blank is the default cell.
var blank = Cell{Ch: ' '}

// Grid is the text-cell output of the compositor, row-major. Reallocated
// only on resize.
type Grid struct {
	Cells []Cell
	W     int
	H     int
}

// NewGrid allocates a grid of blank cells.
func NewGrid(w, h int) *Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &Grid{
		Cells: make([]Cell, w*h),
		W:     w,
		H:     h,
	}
	g.Clear()
	return g
}

// At returns a pointer to the cell at (x, y). The caller must stay in
// bounds; the compositor iterates the grid directly.
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[y*g.W+x]
}

// Set writes the cell at (x, y).
func (g *Grid) Set(x, y int, c Cell) {
	g.Cells[y*g.W+x] = c
}

// Clear resets every cell to blank.
func (g *Grid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = blank
	}
}

// CopyFrom copies all cells from a grid of identical dimensions; a no-op
// otherwise.
func (g *Grid) CopyFrom(other *Grid) {
	if g.W == other.W && g.H == other.H {
		copy(g.Cells, other.Cells)
	}
}

// Resize reallocates the grid if the dimensions changed.
func (g *Grid) Resize(w, h int) {
	if g.W == w && g.H == h {
		return
	}
	g.W = w
	g.H = h
	g.Cells = make([]Cell, w*h)
	g.Clear()
}
