//go:build !tinygo

package hal

import "sync"

// hostFramebuffer is plain memory; the window (if any) copies it out on draw.
type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: width * 2,
		buf:    make([]byte, width*height*2),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }
func (f *hostFramebuffer) Present() error      { return nil }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	p := rgb565(r, g, b)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf[0], f.buf[1] = byte(p), byte(p>>8)
	for filled := 2; filled < len(f.buf); filled *= 2 {
		copy(f.buf[filled:], f.buf[:filled])
	}
}
