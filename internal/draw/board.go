package draw

import (
	"math"
	"strings"

	"github.com/tomz197/bocce/internal/object"
)

// Ink selects the style a board cell is rendered with.
type Ink uint8

const (
	InkFloor Ink = iota
	InkMark
	InkAim
	InkTarget
	InkTeamA
	InkTeamB
)

// TeamInk returns the ink for a team's balls.
func TeamInk(t object.Team) Ink {
	if t == object.TeamB {
		return InkTeamB
	}
	return InkTeamA
}

type cell struct {
	ch  rune
	ink Ink
}

// Board is a top-down character grid of the court. Columns run along the
// court length (Z) and rows across its width (X), so the throw line is on
// the left edge.
type Board struct {
	cols, rows    int
	length, width float64
	cells         []cell
}

// NewBoard creates a board of cols x rows cells for a court of the given
// length and width in metres.
func NewBoard(cols, rows int, length, width float64) *Board {
	b := &Board{length: length, width: width}
	b.Resize(cols, rows)
	return b
}

// Resize changes the grid size and clears it.
func (b *Board) Resize(cols, rows int) {
	b.cols, b.rows = max(cols, 2), max(rows, 2)
	b.cells = make([]cell, b.cols*b.rows)
	b.Clear()
}

// Size returns the grid size in cells.
func (b *Board) Size() (cols, rows int) { return b.cols, b.rows }

// Clear resets every cell to bare floor with a centre line.
func (b *Board) Clear() {
	for i := range b.cells {
		b.cells[i] = cell{ch: ' ', ink: InkFloor}
	}
	mid := b.rows / 2
	if b.rows%2 == 1 {
		for c := 0; c < b.cols; c += 2 {
			b.cells[mid*b.cols+c] = cell{ch: '·', ink: InkMark}
		}
	}
}

// Cell maps a court position to a grid cell. ok is false off court.
func (b *Board) Cell(p object.Vec3) (col, row int, ok bool) {
	fc := (p.Z + b.length/2) / b.length * float64(b.cols-1)
	fr := (p.X + b.width/2) / b.width * float64(b.rows-1)
	col, row = int(math.Round(fc)), int(math.Round(fr))
	ok = col >= 0 && col < b.cols && row >= 0 && row < b.rows
	return col, row, ok
}

// Plot draws ch at p. Positions off the court are ignored.
func (b *Board) Plot(p object.Vec3, ch rune, ink Ink) bool {
	col, row, ok := b.Cell(p)
	if !ok {
		return false
	}
	b.cells[row*b.cols+col] = cell{ch: ch, ink: ink}
	return true
}

// Path draws ch along the polyline through points, leaving cells that
// already hold something other than floor untouched.
func (b *Board) Path(points []object.Vec3, ch rune, ink Ink) {
	for i := 1; i < len(points); i++ {
		c0, r0, _ := b.Cell(points[i-1])
		c1, r1, _ := b.Cell(points[i])
		Line(c0, r0, c1, r1, func(c, r int) {
			if c < 0 || c >= b.cols || r < 0 || r >= b.rows {
				return
			}
			if cur := b.cells[r*b.cols+c]; cur.ink != InkFloor && cur.ink != InkMark {
				return
			}
			b.cells[r*b.cols+c] = cell{ch: ch, ink: ink}
		})
	}
}

// At returns the rune at a grid cell, for tests and plain rendering.
func (b *Board) At(col, row int) rune {
	if col < 0 || col >= b.cols || row < 0 || row >= b.rows {
		return 0
	}
	return b.cells[row*b.cols+col].ch
}

// Render returns the board framed and styled by p. Runs of cells with the
// same ink are styled together.
func (b *Board) Render(p Palette) string {
	var out strings.Builder
	var run strings.Builder
	for r := 0; r < b.rows; r++ {
		if r > 0 {
			out.WriteByte('\n')
		}
		ink := b.cells[r*b.cols].ink
		for c := 0; c < b.cols; c++ {
			cl := b.cells[r*b.cols+c]
			if cl.ink != ink {
				out.WriteString(p.ink(ink).Render(run.String()))
				run.Reset()
				ink = cl.ink
			}
			run.WriteRune(cl.ch)
		}
		out.WriteString(p.ink(ink).Render(run.String()))
		run.Reset()
	}
	return p.Frame.Render(out.String())
}
