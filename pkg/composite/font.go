package composite

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// DefaultFontSize is the label point size at 72 DPI.
const DefaultFontSize = 100

// fallbackFontName identifies the built-in bitmap face.
const fallbackFontName = "basicfont.Face7x13"

// searchFonts are looked up in the platform font directories when the
// platform default is missing.
var searchFonts = []string{
	"DejaVuSans.ttf",
	"Arial.ttf",
	"LiberationSans-Regular.ttf",
	"Helvetica.ttc",
	"FreeSans.ttf",
}

// platformFontPath returns the default label font for the running OS.
func platformFontPath() string {
	switch runtime.GOOS {
	case "windows":
		return "C:/Windows/Fonts/arial.ttf"
	case "darwin":
		return "/System/Library/Fonts/Helvetica.ttc"
	default:
		return "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	}
}

// LoadFace returns a label face of the given size and the name of the font
// file it came from. It tries path first (if set), then the platform
// default, then the platform font directories, and finally falls back to
// the built-in 7x13 bitmap face. It never fails.
func LoadFace(path string, size float64, logger *log.Logger) (font.Face, string) {
	if logger == nil {
		logger = log.Default()
	}
	if size <= 0 {
		size = DefaultFontSize
	}

	candidates := []string{platformFontPath()}
	if path != "" {
		candidates = append([]string{path}, candidates...)
	}
	for _, p := range candidates {
		face, err := parseFace(p, size)
		if err == nil {
			return face, p
		}
		logger.Debug("label font unavailable", "path", p, "err", err)
	}

	// findfont walks every platform font directory.
	for _, name := range searchFonts {
		p, err := findfont.Find(name)
		if err != nil {
			continue
		}
		if face, err := parseFace(p, size); err == nil {
			return face, p
		}
	}

	logger.Debug("using built-in label font", "font", fallbackFontName)
	return basicfont.Face7x13, fallbackFontName
}

// parseFace loads a TrueType file, or the first font of a TrueType/OpenType
// collection.
func parseFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		f, err := coll.Font(0)
		if err != nil {
			return nil, err
		}
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	default:
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, err
		}
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
	}
}
