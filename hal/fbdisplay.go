package hal

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// FramebufferDisplayer adapts an RGB565 Framebuffer to the drivers.Displayer
// contract used by tinyfont and tinyterm.
type FramebufferDisplayer struct {
	fb Framebuffer
}

func NewFramebufferDisplayer(fb Framebuffer) *FramebufferDisplayer {
	return &FramebufferDisplayer{fb: fb}
}

var _ drivers.Displayer = (*FramebufferDisplayer)(nil)

func (d *FramebufferDisplayer) usable() bool {
	return d.fb != nil && d.fb.Format() == PixelFormatRGB565 && d.fb.Buffer() != nil
}

func (d *FramebufferDisplayer) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *FramebufferDisplayer) SetPixel(x, y int16, c color.RGBA) {
	if !d.usable() {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	p := rgb565(c.R, c.G, c.B)
	buf := d.fb.Buffer()
	off := iy*d.fb.StrideBytes() + ix*2
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
}

func (d *FramebufferDisplayer) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *FramebufferDisplayer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.usable() {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0, y0 := clamp(int(x), 0, w), clamp(int(y), 0, h)
	x1, y1 := clamp(int(x)+int(width), 0, w), clamp(int(y)+int(height), 0, h)

	p := rgb565(c.R, c.G, c.B)
	lo, hi := byte(p), byte(p>>8)
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := buf[py*stride:]
		for px := x0; px < x1; px++ {
			row[px*2] = lo
			row[px*2+1] = hi
		}
	}
	return nil
}

// ScrollUp moves the picture up by lines rows and clears the exposed bottom.
func (d *FramebufferDisplayer) ScrollUp(lines int16, bg color.RGBA) error {
	if !d.usable() || lines <= 0 {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	n := int(lines)
	if n >= h {
		return d.FillRectangle(0, 0, int16(w), int16(h), bg)
	}
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	copy(buf[:(h-n)*stride], buf[n*stride:h*stride])
	return d.FillRectangle(0, int16(h-n), int16(w), int16(n), bg)
}

func (d *FramebufferDisplayer) SetScroll(line int16) {}

func (d *FramebufferDisplayer) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return ErrNotImplemented
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rgb565 packs an 8-bit-per-channel colour.
func rgb565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// rgb888 expands an RGB565 pixel, replicating the high bits into the low ones.
func rgb888(p uint16) (r, g, b uint8) {
	r5, g6, b5 := uint8(p>>11)&0x1F, uint8(p>>5)&0x3F, uint8(p)&0x1F
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}
