package mesh

import (
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/quadstack/stack"
)

// Palette holds the colours materials are drawn with. Material m uses entry
// m modulo the palette length.
var Palette = []string{
	"#7f7f7f", "#8b5a2b", "#c2b280", "#3b7d23", "#5d9b3a", "#a0a0a0",
	"#d9d9d9", "#f2f2f2", "#1f5fa8", "#4a90d9", "#6b4226", "#b5651d",
	"#e0c068", "#556b2f", "#2f4f4f", "#8fbc8f", "#cd853f", "#deb887",
	"#bc8f8f", "#696969", "#708090", "#b0c4de", "#ffffff", "#000000",
}

// Color returns the palette colour of material m.
func Color[M stack.Material](m M) string {
	i := int64(m) % int64(len(Palette))
	if i < 0 {
		i += int64(len(Palette))
	}
	return Palette[i]
}

// ParseHexColor parses #rrggbb or #rrggbbaa into linear RGBA in [0, 1].
func ParseHexColor(s string) ([4]float32, error) {
	rgba := [4]float32{1, 1, 1, 1}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return rgba, errors.New("invalid hex color").WithTag("color", s)
	}
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return rgba, errors.New("invalid hex color").
				WithTag("color", s).
				Wrap(err)
		}
		rgba[i] = float32(v) / 255
	}
	return rgba, nil
}
