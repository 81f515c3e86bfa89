package ui

import (
	"image"
	"image/color"
	"testing"

	"github.com/cbegin/stepseq-go/internal/pattern"
)

func center(r image.Rectangle) (int, int) {
	return (r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2
}

func TestLayoutFitsWindow(t *testing.T) {
	l := DefaultLayout()
	win := image.Rect(0, 0, WindowW, WindowH)
	all := []image.Rectangle{l.Transport, l.Status}
	all = append(all, l.Tracks[:]...)
	all = append(all, l.Pads[:]...)
	for i, r := range all {
		if !r.In(win) {
			t.Fatalf("rect %d %v outside window", i, r)
		}
		for j := i + 1; j < len(all); j++ {
			if r.Overlaps(all[j]) {
				t.Fatalf("rect %d %v overlaps rect %d %v", i, r, j, all[j])
			}
		}
	}
}

func TestHitTest(t *testing.T) {
	l := DefaultLayout()

	if h := l.HitTest(center(l.Transport)); h.Kind != HitTransport {
		t.Fatalf("transport center hit %+v", h)
	}
	for i, r := range l.Tracks {
		h := l.HitTest(center(r))
		if h.Kind != HitTrack || h.Track != pattern.Track(i) {
			t.Fatalf("track %d center hit %+v", i, h)
		}
	}
	for i, r := range l.Pads {
		h := l.HitTest(center(r))
		if h.Kind != HitPad || h.Pad != i {
			t.Fatalf("pad %d center hit %+v", i, h)
		}
	}
	if h := l.HitTest(0, 0); h.Kind != HitNone {
		t.Fatalf("corner hit %+v", h)
	}
	// Max edges are exclusive.
	if h := l.HitTest(l.Transport.Max.X, l.Transport.Min.Y); h.Kind == HitTransport {
		t.Fatalf("right edge should not hit the transport")
	}
}

func TestPadsInReadingOrder(t *testing.T) {
	l := DefaultLayout()
	if l.Pads[1].Min.X <= l.Pads[0].Min.X || l.Pads[4].Min.Y <= l.Pads[0].Min.Y {
		t.Fatalf("pads not laid out row by row")
	}
}

func TestPadColorPrecedence(t *testing.T) {
	cases := []struct {
		active, current bool
		want            color.RGBA
	}{
		{false, false, PadDefaultColor},
		{true, false, PadActiveColor},
		{false, true, PadCurrentColor},
		{true, true, PadCurrentColor},
	}
	for _, tc := range cases {
		if got := PadColor(tc.active, tc.current); got != tc.want {
			t.Fatalf("PadColor(%v, %v) = %v, want %v", tc.active, tc.current, got, tc.want)
		}
	}
	if TrackButtonColor(true) == TrackButtonColor(false) {
		t.Fatalf("selected instrument should be highlighted")
	}
}
