//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"

	"railos/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// RunWindow opens a desktop window showing the terminal line and forwards
// keyboard input to it. It blocks until the window closes. When the OS stops
// with an error the window stays open so the diagnostic remains visible.
func RunWindow(ctx context.Context, cfg Config, boot BootFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := newHost(cfg, nil, true)
	h.Start(ctx)

	g := &hostGame{h: h, done: make(chan error, 1)}
	go func() { g.done <- boot(ctx, h) }()

	ebiten.SetWindowTitle("railos (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	cancel()
	if g.finished {
		return g.bootErr
	}
	if bootErr := <-g.done; bootErr != nil && !errors.Is(bootErr, context.Canceled) {
		return bootErr
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	h    *hostHAL
	done chan error

	finished bool
	bootErr  error

	pix     []byte
	scratch []byte
	img     *ebiten.Image
}

// ctrlKeys are forwarded as ASCII control codes while Ctrl is held.
var ctrlKeys = map[ebiten.Key]byte{
	ebiten.KeyC: 0x03,
	ebiten.KeyD: 0x04,
	ebiten.KeyL: 0x0C,
	ebiten.KeyU: 0x15,
}

// specialKeys map to the bytes a serial terminal sends for them.
var specialKeys = map[ebiten.Key][]byte{
	ebiten.KeyEnter:      {'\r'},
	ebiten.KeyBackspace:  {0x08},
	ebiten.KeyTab:        {'\t'},
	ebiten.KeyEscape:     {0x1b},
	ebiten.KeyArrowUp:    {0x1b, '[', 'A'},
	ebiten.KeyArrowDown:  {0x1b, '[', 'B'},
	ebiten.KeyArrowRight: {0x1b, '[', 'C'},
	ebiten.KeyArrowLeft:  {0x1b, '[', 'D'},
}

func (g *hostGame) Update() error {
	if !g.finished {
		select {
		case err := <-g.done:
			g.finished = true
			g.bootErr = err
			if err == nil || errors.Is(err, context.Canceled) {
				return ebiten.Termination
			}
			g.h.log.Error("system stopped; close the window to exit", zap.Error(err))
		default:
		}
	}
	g.pollKeys()
	g.h.screen.Flush()
	return nil
}

func (g *hostGame) pollKeys() {
	var in []byte
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	if ctrl {
		for k, code := range ctrlKeys {
			if inpututil.IsKeyJustPressed(k) {
				in = append(in, code)
			}
		}
	} else {
		for _, r := range ebiten.AppendInputChars(nil) {
			in = append(in, string(r)...)
		}
	}
	for k, seq := range specialKeys {
		if inpututil.IsKeyJustPressed(k) {
			in = append(in, seq...)
		}
	}
	if len(in) > 0 {
		g.h.term.Feed(in)
	}
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	n := fb.width * fb.height
	if g.img == nil {
		g.img = ebiten.NewImage(fb.width, fb.height)
		g.pix = make([]byte, n*4)
		g.scratch = make([]byte, n*2)
	}

	g.h.screen.Snapshot(g.scratch)
	for i := 0; i < n; i++ {
		r, gg, b := rgb888(uint16(g.scratch[2*i]) | uint16(g.scratch[2*i+1])<<8)
		g.pix[4*i+0] = r
		g.pix[4*i+1] = gg
		g.pix[4*i+2] = b
		g.pix[4*i+3] = 0xFF
	}
	g.img.WritePixels(g.pix)
	screen.DrawImage(g.img, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
