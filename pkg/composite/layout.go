package composite

import (
	"image"
	"math"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Layout is the grid geometry of a composite. All values are pixels except
// Columns and Rows.
type Layout struct {
	Columns    int
	Rows       int
	CellWidth  int
	CellHeight int
	Spacing    int
	Gutter     int // left margin reserved for row labels, including its spacing
	Width      int
	Height     int
}

// NewLayout computes the layout for images of the given sizes.
func NewLayout(sizes []image.Point, opts Options) (Layout, error) {
	if len(sizes) == 0 {
		return Layout{}, errors.New(errors.ErrCodeInvalidInput, "no images supplied")
	}
	if err := opts.validate(); err != nil {
		return Layout{}, err
	}

	l := Layout{
		Columns: opts.Columns,
		Rows:    (len(sizes) + opts.Columns - 1) / opts.Columns,
		Spacing: opts.Spacing,
	}
	for i, s := range sizes {
		if s.X <= 0 || s.Y <= 0 {
			return Layout{}, errors.New(errors.ErrCodeInvalidInput, "image %d has empty size %dx%d", i, s.X, s.Y)
		}
		l.CellWidth = max(l.CellWidth, s.X)
		l.CellHeight = max(l.CellHeight, s.Y)
	}
	if len(opts.RowLabels) > 0 {
		l.Gutter = opts.LabelWidth + opts.Spacing
	}

	l.Width = l.Gutter + l.CellWidth*l.Columns + l.Spacing*(l.Columns-1)
	l.Height = l.CellHeight*l.Rows + l.Spacing*(l.Rows-1)
	return l, nil
}

// Cell returns the top-left corner of the cell holding image i.
func (l Layout) Cell(i int) image.Point {
	row, col := i/l.Columns, i%l.Columns
	return image.Pt(
		l.Gutter+col*(l.CellWidth+l.Spacing),
		row*(l.CellHeight+l.Spacing),
	)
}

// Position returns where an image of the given size is drawn so that it is
// centered in cell i.
func (l Layout) Position(i int, size image.Point) image.Point {
	return l.Cell(i).Add(image.Pt(
		(l.CellWidth-size.X)/2,
		(l.CellHeight-size.Y)/2,
	))
}

// RowMiddle returns the y coordinate of the vertical midpoint of a row.
func (l Layout) RowMiddle(row int) int {
	return row*(l.CellHeight+l.Spacing) + l.CellHeight/2
}

// Bounds returns the canvas rectangle.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

// ChooseColumnCount returns the column count in 1..len(sizes) whose grid
// aspect ratio is closest to target. The first image is the unit cell. On
// ties the smallest column count wins. An empty input yields 1.
func ChooseColumnCount(sizes []image.Point, target float64) int {
	n := len(sizes)
	best := 1
	if n == 0 || sizes[0].X <= 0 || sizes[0].Y <= 0 {
		return best
	}
	w, h := float64(sizes[0].X), float64(sizes[0].Y)

	bestDiff := math.Inf(1)
	for cols := 1; cols <= n; cols++ {
		rows := (n + cols - 1) / cols
		ratio := (float64(cols) * w) / (float64(rows) * h)
		if diff := math.Abs(ratio - target); diff < bestDiff {
			bestDiff = diff
			best = cols
		}
	}
	return best
}
