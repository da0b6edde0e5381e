package composite

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// solid returns an opaque image of one color.
func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// gradient returns an opaque image where every pixel is distinct enough to
// detect displacement.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 255})
		}
	}
	return img
}

// writeFixture draws a filled rectangle PNG and returns its path.
func writeFixture(t *testing.T, dir, name string, w, h int, r, g, b float64) string {
	t.Helper()
	dc := gg.NewContext(w, h)
	dc.SetRGB(r, g, b)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
	path := filepath.Join(dir, name)
	if err := dc.SavePNG(path); err != nil {
		t.Fatalf("SavePNG(%s): %v", path, err)
	}
	return path
}

func TestComposeScenario(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	a := solid(100, 50, red)
	b := solid(80, 80, blue)

	out, err := Compose([]image.Image{a, b}, Options{Columns: 2, Spacing: 10})
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if got := out.Bounds().Size(); got != image.Pt(210, 80) {
		t.Fatalf("canvas = %v, want 210x80", got)
	}

	// A is centered vertically with a 15px margin above and below.
	for _, y := range []int{0, 14, 65, 79} {
		if px := out.NRGBAAt(50, y); px.A != 0 {
			t.Errorf("A margin at y=%d = %v, want transparent", y, px)
		}
	}
	for _, y := range []int{15, 40, 64} {
		if px := out.NRGBAAt(50, y); px != red {
			t.Errorf("A at y=%d = %v, want %v", y, px, red)
		}
	}

	// B fills the full height of its cell, centered horizontally.
	for _, y := range []int{0, 79} {
		if px := out.NRGBAAt(120, y); px != blue {
			t.Errorf("B at y=%d = %v, want %v", y, px, blue)
		}
	}
	if px := out.NRGBAAt(115, 40); px.A != 0 {
		t.Errorf("B horizontal margin = %v, want transparent", px)
	}
	// Spacing column between cells stays background.
	if px := out.NRGBAAt(105, 40); px != background {
		t.Errorf("spacing = %v, want %v", px, background)
	}
}

func TestComposePreservesPixels(t *testing.T) {
	images := []image.Image{gradient(30, 20), gradient(12, 40), gradient(25, 25), gradient(7, 3), gradient(30, 40)}
	opts := Options{Columns: 2, Spacing: 3}

	out, err := Compose(images, opts)
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}

	sizes := make([]image.Point, len(images))
	for i, img := range images {
		sizes[i] = img.Bounds().Size()
	}
	l, err := NewLayout(sizes, opts)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}

	for i, img := range images {
		src := img.(*image.NRGBA)
		pos := l.Position(i, sizes[i])
		for y := 0; y < sizes[i].Y; y++ {
			for x := 0; x < sizes[i].X; x++ {
				want := src.NRGBAAt(x, y)
				if got := out.NRGBAAt(pos.X+x, pos.Y+y); got != want {
					t.Fatalf("image %d pixel (%d,%d) = %v, want %v", i, x, y, got, want)
				}
			}
		}
	}
}

func TestComposeAlpha(t *testing.T) {
	transparent := solid(10, 10, color.NRGBA{R: 200, A: 0})
	out, err := Compose([]image.Image{transparent}, Options{Columns: 1})
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if px := out.NRGBAAt(5, 5); px.A != 0 {
		t.Errorf("transparent source produced %v, want alpha 0", px)
	}

	half := solid(10, 10, color.NRGBA{G: 255, A: 128})
	out, err = Compose([]image.Image{half}, Options{Columns: 1})
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	px := out.NRGBAAt(5, 5)
	if px.A < 127 || px.A > 129 || px.G < 250 {
		t.Errorf("half transparent source produced %v, want ~{0 255 0 128}", px)
	}
}

func TestComposeLabels(t *testing.T) {
	cell := solid(60, 120, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	images := []image.Image{cell, cell, cell, cell, cell, cell}
	opts := Options{
		Columns:    2,
		Spacing:    10,
		LabelWidth: 200,
		RowLabels:  []string{"A", "", "C", "ignored"},
		FontPath:   filepath.Join(t.TempDir(), "missing.ttf"),
	}

	out, err := Compose(images, opts)
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if want := 210 + 60*2 + 10; out.Bounds().Dx() != want {
		t.Fatalf("width = %d, want %d", out.Bounds().Dx(), want)
	}

	inkInRow := func(row int) bool {
		top := row * 130
		for y := top; y < top+120; y++ {
			for x := 0; x < 210; x++ {
				if px := out.NRGBAAt(x, y); px.A > 0 {
					return true
				}
			}
		}
		return false
	}

	if !inkInRow(0) {
		t.Error("row 0 label was not drawn")
	}
	if inkInRow(1) {
		t.Error("row 1 has an empty label but the gutter has ink")
	}
	if !inkInRow(2) {
		t.Error("row 2 label was not drawn")
	}

	// Label ink is black.
	for y := 0; y < 120; y++ {
		for x := 0; x < 210; x++ {
			if px := out.NRGBAAt(x, y); px.A > 0 && (px.R != 0 || px.G != 0 || px.B != 0) {
				t.Fatalf("label pixel (%d,%d) = %v, want black", x, y, px)
			}
		}
	}
}

func TestComposeErrors(t *testing.T) {
	tests := []struct {
		name   string
		images []image.Image
		opts   Options
	}{
		{"no images", nil, DefaultOptions()},
		{"nil image", []image.Image{nil}, DefaultOptions()},
		{"empty image", []image.Image{image.NewNRGBA(image.Rect(0, 0, 0, 5))}, DefaultOptions()},
		{"zero columns", []image.Image{solid(1, 1, color.NRGBA{})}, Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(tt.images, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Compose() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFixture(t, dir, "avg.png", 40, 30, 1, 0, 0),
		writeFixture(t, dir, "max.png", 40, 30, 0, 1, 0),
		writeFixture(t, dir, "avg2.png", 40, 30, 0, 0, 1),
	}
	out := filepath.Join(dir, "nested", "summary.img")

	if err := WriteFile(paths, out, Options{Columns: 2, Spacing: 4}); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(84, 64) {
		t.Errorf("output size = %v, want 84x64", got)
	}
}

func TestComposeFilesErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "ok.png", 4, 4, 0, 0, 0)
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		code  errors.Code
	}{
		{"no paths", nil, errors.ErrCodeInvalidInput},
		{"missing", []string{good, filepath.Join(dir, "missing.png")}, errors.ErrCodeFileNotFound},
		{"undecodable", []string{good, bad}, errors.ErrCodeDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComposeFiles(tt.paths, DefaultOptions())
			if !errors.Is(err, tt.code) {
				t.Errorf("ComposeFiles() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestChooseColumnCountFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		paths = append(paths, writeFixture(t, dir, name, 20, 20, 0.5, 0.5, 0.5))
	}

	got, err := ChooseColumnCountFiles(paths, 4)
	if err != nil {
		t.Fatalf("ChooseColumnCountFiles() error: %v", err)
	}
	if got != 4 {
		t.Errorf("ChooseColumnCountFiles() = %d, want 4", got)
	}

	if _, err := ChooseColumnCountFiles(nil, 1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty input error = %v, want INVALID_INPUT", err)
	}

	sizes, err := ImageSizes(paths[:2])
	if err != nil {
		t.Fatalf("ImageSizes() error: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != image.Pt(20, 20) {
		t.Errorf("ImageSizes() = %v", sizes)
	}
}

func TestLoadFaceFallback(t *testing.T) {
	face, name := LoadFace(filepath.Join(t.TempDir(), "nope.ttf"), 24, nil)
	if face == nil {
		t.Fatal("LoadFace() returned nil face")
	}
	defer face.Close()
	if name == "" {
		t.Error("LoadFace() returned empty font name")
	}
	if m := face.Metrics(); m.Height <= 0 {
		t.Errorf("face height = %v, want positive", m.Height)
	}
}

func TestLoadFaceRejectsGarbage(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.ttf")
	if err := os.WriteFile(garbage, []byte("definitely not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := parseFace(garbage, 12); err == nil {
		t.Error("parseFace() accepted a non-font file")
	}
	_, name := LoadFace(garbage, 12, nil)
	if name == garbage {
		t.Error("LoadFace() reported the garbage file as the loaded font")
	}
}
