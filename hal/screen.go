package hal

import (
	"sync"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// Screen renders a byte stream as a VT100 terminal on a framebuffer. It is the
// far end of the terminal line when the host has a window.
type Screen struct {
	mu    sync.Mutex
	fb    Framebuffer
	d     *FramebufferDisplayer
	t     *tinyterm.Terminal
	dirty bool
}

func NewScreen(fb Framebuffer) *Screen {
	s := &Screen{fb: fb, d: NewFramebufferDisplayer(fb)}
	s.Reset()
	return s
}

// Reset clears the screen and homes the cursor.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fb.ClearRGB(0, 0, 0)
	s.t = tinyterm.NewTerminal(s.d)
	s.t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})
	s.dirty = true
}

func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range p {
		// The terminal line sends CR LF; tinyterm's LF already returns.
		if b == '\r' {
			continue
		}
		_ = s.t.WriteByte(b)
	}
	s.dirty = true
	return len(p), nil
}

// Snapshot copies the framebuffer contents into dst without racing a write.
func (s *Screen) Snapshot(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(dst, s.fb.Buffer())
}

// Flush presents pending output. It reports whether anything changed.
func (s *Screen) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return false
	}
	s.t.Display()
	s.dirty = false
	return true
}
