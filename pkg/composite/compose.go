package composite

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Default layout values.
const (
	DefaultColumns    = 2
	DefaultSpacing    = 10
	DefaultLabelWidth = 200
)

// labelMargin is the distance between the canvas edge and a row label.
const labelMargin = 10

var (
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 0}
	labelColor = color.NRGBA{A: 255}
)

// Options configures a composition.
type Options struct {
	Columns    int      // images per row, at least 1
	Spacing    int      // pixels between cells and after the label gutter
	RowLabels  []string // optional label per row; extra labels are ignored
	LabelWidth int      // gutter width reserved for labels
	FontPath   string   // optional label font, tried before the platform fonts
	FontSize   float64  // label point size; DefaultFontSize when zero

	Logger *log.Logger // optional; font fallback is reported at debug level
}

// DefaultOptions returns two columns, 10px spacing and a 200px label gutter.
func DefaultOptions() Options {
	return Options{
		Columns:    DefaultColumns,
		Spacing:    DefaultSpacing,
		LabelWidth: DefaultLabelWidth,
		FontSize:   DefaultFontSize,
	}
}

func (o Options) validate() error {
	if o.Columns < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "columns must be positive, got %d", o.Columns)
	}
	if o.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative, got %d", o.Spacing)
	}
	if o.LabelWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "label width must not be negative, got %d", o.LabelWidth)
	}
	return nil
}

// Compose tiles images into a single canvas. Sources are composited over a
// transparent white background using their alpha channel.
func Compose(images []image.Image, opts Options) (*image.NRGBA, error) {
	sizes := make([]image.Point, len(images))
	for i, img := range images {
		if img == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "image %d is nil", i)
		}
		sizes[i] = img.Bounds().Size()
	}

	l, err := NewLayout(sizes, opts)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(l.Width, l.Height, background)

	var labels *labelDrawer
	if len(opts.RowLabels) > 0 {
		labels = newLabelDrawer(canvas, opts)
		defer labels.Close()
	}

	for i, img := range images {
		pos := l.Position(i, sizes[i])
		b := img.Bounds()
		draw.Draw(canvas, image.Rectangle{Min: pos, Max: pos.Add(b.Size())}, img, b.Min, draw.Over)

		row, col := i/l.Columns, i%l.Columns
		if col == 0 && labels != nil && row < len(opts.RowLabels) {
			labels.draw(opts.RowLabels[row], labelMargin, l.RowMiddle(row))
		}
	}

	return canvas, nil
}

// ComposeFiles decodes the images at paths and composes them. Each file is
// closed as soon as it is decoded; the decoded rasters live only for the
// duration of the call.
func ComposeFiles(paths []string, opts Options) (*image.NRGBA, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no images supplied")
	}

	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", p)
			}
			return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", p)
		}
		images = append(images, img)
	}
	return Compose(images, opts)
}

// WriteFile composes the images at paths and saves the result as PNG at out.
func WriteFile(paths []string, out string, opts Options) error {
	img, err := ComposeFiles(paths, opts)
	if err != nil {
		return err
	}
	return Save(img, out)
}

// Encode writes img to w as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode png")
	}
	return nil
}

// Save writes img as PNG to path, creating parent directories. The PNG
// format is used regardless of the file extension.
func Save(img image.Image, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return Encode(f, img)
}

// ImageSizes reads only the headers of the files at paths.
func ImageSizes(paths []string) ([]image.Point, error) {
	sizes := make([]image.Point, len(paths))
	for i, p := range paths {
		size, err := imageSize(p)
		if err != nil {
			return nil, err
		}
		sizes[i] = size
	}
	return sizes, nil
}

func imageSize(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return image.Point{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return image.Point{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", path)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// ChooseColumnCountFiles is [ChooseColumnCount] over image files. Only the
// first file is read; its size is the unit cell.
func ChooseColumnCountFiles(paths []string, target float64) (int, error) {
	if len(paths) == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "no images supplied")
	}
	unit, err := imageSize(paths[0])
	if err != nil {
		return 0, err
	}
	sizes := make([]image.Point, len(paths))
	for i := range sizes {
		sizes[i] = unit
	}
	return ChooseColumnCount(sizes, target), nil
}

// labelDrawer renders row labels onto the canvas.
type labelDrawer struct {
	d *font.Drawer
}

func newLabelDrawer(dst draw.Image, opts Options) *labelDrawer {
	face, _ := LoadFace(opts.FontPath, opts.FontSize, opts.Logger)
	return &labelDrawer{d: &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}}
}

// draw renders text left-aligned at x with its ink box vertically centered
// on middle.
func (ld *labelDrawer) draw(text string, x, middle int) {
	if text == "" {
		return
	}
	ld.d.Dot = fixed.Point26_6{}
	bounds, _ := ld.d.BoundString(text)
	height := (bounds.Max.Y - bounds.Min.Y).Ceil()
	top := middle - height/2

	ld.d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(top) - bounds.Min.Y}
	ld.d.DrawString(text)
}

func (ld *labelDrawer) Close() error {
	return ld.d.Face.Close()
}
