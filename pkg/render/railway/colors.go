package railway

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
)

// Palette constants shared by the SVG and HTML output.
const (
	stopColor     = "#dbdbdb"
	breakingColor = "#ff4545"
	tagColor      = "#dad7bc"
	greyColor     = "gray"
	labelColor    = "#c9bcbc"
)

// RefColor derives a stable display color from a ref name. The name is
// hashed and the digest reinterpreted as a color, then pulled into a narrow
// saturation and lightness band so every ref stays readable on the dark
// background while remaining distinguishable.
func RefColor(name string) string {
	sum := md5.Sum([]byte(name))
	digest := hex.EncodeToString(sum[:])

	rgb, _ := hex.DecodeString(digest[2:8])
	h, s, l := rgbToHSL(rgb[0], rgb[1], rgb[2])

	s = clamp(s, 0.4, 0.5)
	l = clamp(l, 0.6, 0.9)

	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func rgbToHSL(r, g, b byte) (h, s, l float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float64) (r, g, b byte) {
	if s == 0 {
		v := byte(math.Round(l * 255))
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	conv := func(t float64) byte {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 1.0/2:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return byte(math.Round(v * 255))
	}

	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}
