//go:build tinygo && baremetal && lcd

package hal

import (
	"machine"
	"time"
)

// ili9488 drives the status LCD on SPI1 (GP10 SCK, GP11 SDO, GP12 SDI,
// GP13 CS, GP14 DC, GP15 RST). It only ever receives full frames.
type ili9488 struct {
	spi         *machine.SPI
	cs, dc, rst machine.Pin
	tx          [2048]byte
}

type lcdCmd struct {
	op    byte
	args  []byte
	sleep time.Duration
}

var ili9488Init = []lcdCmd{
	{op: 0xC0, args: []byte{0x17, 0x15}},             // power control 1
	{op: 0xC1, args: []byte{0x41}},                   // power control 2
	{op: 0xC5, args: []byte{0x00, 0x12, 0x80, 0x40}}, // VCOM
	{op: 0x3A, args: []byte{0x55}},                   // 16 bpp
	{op: 0xB1, args: []byte{0xA0, 0x11}},             // frame rate
	{op: 0xB6, args: []byte{0x02, 0x22, 0x27}},       // display function
	{op: 0x21},                                       // inversion on
	{op: 0x36, args: []byte{0x4C}},                   // MX, MH, BGR
	{op: 0x11, sleep: 120 * time.Millisecond},        // sleep out
	{op: 0x29},                                       // display on
}

func openPanel() panel {
	spi := machine.SPI1
	if err := spi.Configure(machine.SPIConfig{
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		SDI:       machine.GP12,
		Frequency: 40_000_000,
	}); err != nil {
		return nil
	}
	d := &ili9488{spi: spi, cs: machine.GP13, dc: machine.GP14, rst: machine.GP15}
	for _, p := range []machine.Pin{d.cs, d.dc, d.rst} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.High()
	}

	d.rst.Low()
	time.Sleep(64 * time.Millisecond)
	d.rst.High()
	time.Sleep(140 * time.Millisecond)

	for _, c := range ili9488Init {
		d.cmd(c.op, c.args...)
		if c.sleep > 0 {
			time.Sleep(c.sleep)
		}
	}
	return d
}

func (d *ili9488) cmd(op byte, args ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{op}, nil)
	d.dc.High()
	if len(args) > 0 {
		d.spi.Tx(args, nil)
	}
	d.cs.High()
}

// blit sends a little-endian RGB565 frame; the panel wants big-endian.
func (d *ili9488) blit(buf []byte, w, h int) error {
	if w <= 0 || h <= 0 || len(buf) < w*h*2 {
		return ErrNotImplemented
	}
	x1, y1 := uint16(w-1), uint16(h-1)
	d.cmd(0x2A, 0, 0, byte(x1>>8), byte(x1))
	d.cmd(0x2B, 0, 0, byte(y1>>8), byte(y1))
	d.cmd(0x2C)

	d.cs.Low()
	d.dc.High()
	for off := 0; off < w*h*2; {
		n := copy(d.tx[:], buf[off:w*h*2]) &^ 1
		for i := 0; i < n; i += 2 {
			d.tx[i], d.tx[i+1] = d.tx[i+1], d.tx[i]
		}
		d.spi.Tx(d.tx[:n], nil)
		off += n
	}
	d.cs.High()
	return nil
}
