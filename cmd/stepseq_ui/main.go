package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"

	"github.com/cbegin/stepseq-go"
	"github.com/cbegin/stepseq-go/internal/pattern"
	"github.com/cbegin/stepseq-go/internal/ui"
)

// 250 updates per second gives the clock a 4ms wake cadence.
const ticksPerSecond = 250

const (
	textScale = 2
	charW     = 6 * textScale
	lineH     = 16 * textScale
)

var (
	bevelLight  = color.RGBA{90, 160, 160, 255}
	bevelDarker = color.RGBA{0, 40, 40, 255}
)

type game struct {
	machine *stepseq.Machine
	events  <-chan stepseq.StepEvent
	layout  ui.Layout

	lastFired []stepseq.Track
	status    string
	statusErr bool

	textCache map[string]*ebiten.Image
}

func newGame(m *stepseq.Machine) *game {
	return &game{
		machine:   m,
		events:    m.Watch(),
		layout:    ui.DefaultLayout(),
		status:    "Stopped",
		textCache: make(map[string]*ebiten.Image, 64),
	}
}

func (g *game) Update() error {
	g.handleMouse()
	g.machine.Tick()
	g.pollEvents()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(ui.BackgroundColor)

	l := g.layout
	transportLabel := "Play"
	if g.machine.Playing() {
		transportLabel = "Stop"
	}
	g.drawButton(screen, l.Transport, transportLabel, ui.ButtonColor)
	selected := g.machine.SelectedTrack()
	for i, rect := range l.Tracks {
		track := pattern.Track(i)
		g.drawButton(screen, rect, track.String(), ui.TrackButtonColor(track == selected))
	}

	pads := g.machine.Pads()
	for i, rect := range l.Pads {
		fill := ui.PadColor(pads[i].Active, pads[i].Current)
		ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), fill)
		vector.StrokeRect(screen, float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), 2, ui.OutlineColor, false)
	}

	g.drawStatus(screen, l.Status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return ui.WindowW, ui.WindowH
}

func (g *game) Close() { _ = g.machine.Close() }

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case stepseq.EventStep:
				g.lastFired = ev.Tracks
			case stepseq.EventTransport:
				if ev.Playing {
					g.setStatus("Playing")
				} else {
					g.lastFired = nil
					g.setStatus("Stopped")
				}
			}
		default:
			return
		}
	}
}

func (g *game) handleMouse() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	hit := g.layout.HitTest(mx, my)
	switch hit.Kind {
	case ui.HitTransport:
		g.machine.Toggle()
	case ui.HitTrack:
		if err := g.machine.SelectTrack(hit.Track); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus(fmt.Sprintf("Track: %s", hit.Track))
	case ui.HitPad:
		active := g.machine.Pattern().IsActive(g.machine.SelectedTrack(), hit.Pad)
		g.setStatus(fmt.Sprintf("Step %d: %s", hit.Pad+1, onOff(active)))
	}
}

func onOff(active bool) string {
	if active {
		return "on"
	}
	return "off"
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	x := rect.Min.X + 8
	y := rect.Min.Y + 8
	g.drawText(screen, g.status, x, y)
	y += lineH
	g.drawText(screen, fmt.Sprintf("%.0f BPM", g.machine.Tempo()), x, y)
	y += lineH
	if g.machine.Playing() {
		g.drawText(screen, fmt.Sprintf("Step %2d/%d", g.machine.CurrentStep()+1, stepseq.Steps), x, y)
		y += lineH
		for _, track := range g.lastFired {
			g.drawText(screen, "* "+track.String(), x, y)
			y += lineH
		}
	}
	if n := g.machine.Dropped(); n > 0 {
		g.drawText(screen, fmt.Sprintf("late: %d", n), x, rect.Max.Y-lineH)
	}
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string, fill color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), fill)
	drawBorder(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*charW/textScale)
		img = ebiten.NewImage(w, lineH/textScale)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 512 {
			g.textCache = make(map[string]*ebiten.Image, 64)
		}
		g.textCache[msg] = img
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	if g.statusErr && msg == g.status {
		op.ColorScale.Scale(1, 0.4, 0.4, 1)
	}
	screen.DrawImage(img, op)
}

func main() {
	var (
		bpm      = flag.Float64("tempo", 120, "tempo in beats per minute")
		samples  = flag.String("samples", "samples", "directory holding kick-808.wav, hihat-electro.wav and clap.wav")
		lenient  = flag.Bool("lenient", false, "play tracks with missing samples silently instead of exiting")
		logLevel = flag.String("log-level", "info", "logrus level: debug|info|warn|error")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		*samples = flag.Arg(0)
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logrus.SetLevel(level)

	dir, err := filepath.Abs(*samples)
	if err != nil {
		log.Fatalf("resolve %q: %v", *samples, err)
	}
	if _, err := os.Stat(dir); err != nil {
		log.Fatalf("sample directory: %v", err)
	}

	m, err := stepseq.New(
		stepseq.WithTempo(*bpm),
		stepseq.WithSampleDir(dir),
		stepseq.WithLenientSamples(*lenient),
	)
	if err != nil {
		log.Fatal(err)
	}
	g := newGame(m)
	defer g.Close()

	ebiten.SetTPS(ticksPerSecond)
	ebiten.SetWindowSize(ui.WindowW, ui.WindowH)
	ebiten.SetWindowTitle("stepseq")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
