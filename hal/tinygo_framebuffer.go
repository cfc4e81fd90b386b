//go:build tinygo && baremetal

package hal

// panel is an attached LCD that can show a whole RGB565 frame.
type panel interface {
	blit(buf []byte, w, h int) error
}

type boardFramebuffer struct {
	w, h  int
	buf   []byte
	panel panel
}

func newBoardFramebuffer(w, h int) *boardFramebuffer {
	return &boardFramebuffer{w: w, h: h, buf: make([]byte, w*h*2), panel: openPanel()}
}

func (f *boardFramebuffer) Width() int          { return f.w }
func (f *boardFramebuffer) Height() int         { return f.h }
func (f *boardFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *boardFramebuffer) StrideBytes() int    { return f.w * 2 }
func (f *boardFramebuffer) Buffer() []byte      { return f.buf }

func (f *boardFramebuffer) ClearRGB(r, g, b uint8) {
	p := rgb565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i], f.buf[i+1] = byte(p), byte(p>>8)
	}
}

func (f *boardFramebuffer) Present() error {
	if f.panel == nil {
		return ErrNotImplemented
	}
	return f.panel.blit(f.buf, f.w, f.h)
}
