package composite

import (
	"image"
	"testing"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

func repeat(size image.Point, n int) []image.Point {
	sizes := make([]image.Point, n)
	for i := range sizes {
		sizes[i] = size
	}
	return sizes
}

func TestNewLayoutTwoColumns(t *testing.T) {
	const w, h, spacing = 64, 48, 10
	opts := Options{Columns: 2, Spacing: spacing}

	for n := 1; n <= 7; n++ {
		l, err := NewLayout(repeat(image.Pt(w, h), n), opts)
		if err != nil {
			t.Fatalf("n=%d: NewLayout() error: %v", n, err)
		}
		rows := (n + 1) / 2
		if l.Width != 2*w+spacing {
			t.Errorf("n=%d: Width = %d, want %d", n, l.Width, 2*w+spacing)
		}
		if want := rows*h + (rows-1)*spacing; l.Height != want {
			t.Errorf("n=%d: Height = %d, want %d", n, l.Height, want)
		}
		if l.Rows != rows {
			t.Errorf("n=%d: Rows = %d, want %d", n, l.Rows, rows)
		}
	}
}

func TestNewLayoutMixedSizes(t *testing.T) {
	sizes := []image.Point{image.Pt(100, 50), image.Pt(80, 80)}
	l, err := NewLayout(sizes, Options{Columns: 2, Spacing: 10})
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}

	if l.Width != 210 || l.Height != 80 {
		t.Errorf("canvas = %dx%d, want 210x80", l.Width, l.Height)
	}
	if got := l.Position(0, sizes[0]); got != image.Pt(0, 15) {
		t.Errorf("Position(A) = %v, want (0,15)", got)
	}
	if got := l.Position(1, sizes[1]); got != image.Pt(120, 0) {
		t.Errorf("Position(B) = %v, want (120,0)", got)
	}
}

func TestNewLayoutSingleRow(t *testing.T) {
	l, err := NewLayout(repeat(image.Pt(10, 10), 3), Options{Columns: 8, Spacing: 2})
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}
	if l.Rows != 1 {
		t.Errorf("Rows = %d, want 1", l.Rows)
	}
	// Unused columns still reserve space.
	if want := 8*10 + 7*2; l.Width != want {
		t.Errorf("Width = %d, want %d", l.Width, want)
	}
}

func TestNewLayoutGutter(t *testing.T) {
	sizes := repeat(image.Pt(30, 20), 4)
	base := Options{Columns: 2, Spacing: 5, LabelWidth: 200}

	plain, err := NewLayout(sizes, base)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}
	if plain.Gutter != 0 {
		t.Errorf("Gutter without labels = %d, want 0", plain.Gutter)
	}

	empty := base
	empty.RowLabels = []string{}
	noLabels, err := NewLayout(sizes, empty)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}
	if noLabels != plain {
		t.Errorf("empty label list layout = %+v, want %+v", noLabels, plain)
	}

	labeled := base
	labeled.RowLabels = []string{"plane0"}
	l, err := NewLayout(sizes, labeled)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}
	if l.Gutter != 205 {
		t.Errorf("Gutter = %d, want 205", l.Gutter)
	}
	if l.Width != plain.Width+205 {
		t.Errorf("Width = %d, want %d", l.Width, plain.Width+205)
	}
	if l.Height != plain.Height {
		t.Errorf("Height = %d, want %d", l.Height, plain.Height)
	}
	if got := l.Cell(3); got != image.Pt(205+30+5, 20+5) {
		t.Errorf("Cell(3) = %v", got)
	}
}

func TestNewLayoutErrors(t *testing.T) {
	tests := []struct {
		name  string
		sizes []image.Point
		opts  Options
	}{
		{"no images", nil, Options{Columns: 2}},
		{"zero columns", repeat(image.Pt(1, 1), 2), Options{Columns: 0}},
		{"negative spacing", repeat(image.Pt(1, 1), 2), Options{Columns: 1, Spacing: -1}},
		{"negative label width", repeat(image.Pt(1, 1), 2), Options{Columns: 1, LabelWidth: -5}},
		{"empty image", []image.Point{image.Pt(4, 4), image.Pt(0, 4)}, Options{Columns: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.sizes, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("NewLayout() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestChooseColumnCount(t *testing.T) {
	square := image.Pt(100, 100)

	tests := []struct {
		name   string
		sizes  []image.Point
		target float64
		want   int
	}{
		{"single row", repeat(square, 5), 5, 5},
		{"square grid", repeat(square, 4), 1, 2},
		{"widescreen", repeat(square, 8), 16.0 / 9.0, 4},
		{"tie keeps fewer columns", repeat(square, 2), 1.25, 1},
		{"tall target", repeat(image.Pt(200, 100), 3), 0.1, 1},
		{"one image", repeat(square, 1), 16.0 / 9.0, 1},
		{"empty", nil, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseColumnCount(tt.sizes, tt.target); got != tt.want {
				t.Errorf("ChooseColumnCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
