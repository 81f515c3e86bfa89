package ui

import (
	"image"
	"image/color"

	"github.com/cbegin/stepseq-go/internal/pattern"
)

const (
	WindowW = 800
	WindowH = 400

	PadRows = 4
	PadCols = 4
	NumPads = PadRows * PadCols

	buttonSize = 80
	padSize    = 80
	gap        = 10
	padOriginX = 400
	padOriginY = 20
	buttonRowY = 310
)

var (
	BackgroundColor = color.RGBA{29, 115, 115, 255}
	OutlineColor    = color.RGBA{0, 70, 70, 255}
	ButtonColor     = color.RGBA{134, 179, 44, 255}
	SelectedColor   = color.RGBA{222, 240, 120, 255}
	TextColor       = color.RGBA{255, 255, 255, 255}

	PadDefaultColor = color.RGBA{52, 82, 82, 255}
	PadActiveColor  = color.RGBA{134, 179, 44, 255}
	PadCurrentColor = color.RGBA{245, 190, 60, 255}
)

// HitKind says what a pointer press landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitTransport
	HitTrack
	HitPad
)

// Hit is the result of a pointer hit test. Track is set for HitTrack, Pad
// (the step index) for HitPad.
type Hit struct {
	Kind  HitKind
	Track pattern.Track
	Pad   int
}

// Layout is the fixed geometry of the window.
type Layout struct {
	Transport image.Rectangle
	Tracks    [pattern.NumTracks]image.Rectangle
	Pads      [NumPads]image.Rectangle
	Status    image.Rectangle
}

// DefaultLayout puts the transport and instrument buttons along the bottom
// left and the 4x4 step grid on the right, one pad per step in reading order.
func DefaultLayout() Layout {
	var l Layout
	l.Transport = image.Rect(gap, buttonRowY, gap+buttonSize, buttonRowY+buttonSize)
	for i := range l.Tracks {
		x := gap + (i+1)*(buttonSize+gap)
		l.Tracks[i] = image.Rect(x, buttonRowY, x+buttonSize, buttonRowY+buttonSize)
	}
	for i := range l.Pads {
		row, col := i/PadCols, i%PadCols
		x := padOriginX + col*(padSize+gap)
		y := padOriginY + row*(padSize+gap)
		l.Pads[i] = image.Rect(x, y, x+padSize, y+padSize)
	}
	l.Status = image.Rect(gap, gap, padOriginX-gap, buttonRowY-gap)
	return l
}

// HitTest maps window coordinates to the control under them.
func (l Layout) HitTest(x, y int) Hit {
	if pointInRect(x, y, l.Transport) {
		return Hit{Kind: HitTransport}
	}
	for i, r := range l.Tracks {
		if pointInRect(x, y, r) {
			return Hit{Kind: HitTrack, Track: pattern.Track(i)}
		}
	}
	for i, r := range l.Pads {
		if pointInRect(x, y, r) {
			return Hit{Kind: HitPad, Pad: i}
		}
	}
	return Hit{Kind: HitNone}
}

// PadColor picks a pad's fill. The current-step highlight wins over the
// pattern-active highlight.
func PadColor(active, current bool) color.RGBA {
	switch {
	case current:
		return PadCurrentColor
	case active:
		return PadActiveColor
	default:
		return PadDefaultColor
	}
}

// TrackButtonColor highlights the focused instrument.
func TrackButtonColor(selected bool) color.RGBA {
	if selected {
		return SelectedColor
	}
	return ButtonColor
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}
