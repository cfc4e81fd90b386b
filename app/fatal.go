package app

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"railos/hal"
	"railos/kernel"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	fatalFontHeight = 10
	fatalFontOffset = 6
)

// fatalLines renders a kernel halt diagnostic as text.
func fatalLines(fe *kernel.FatalError) []string {
	lines := []string{
		"railos halted",
		fmt.Sprintf("cause: %v", fe.Cause),
	}
	if fe.TID != kernel.NoTID {
		lines = append(lines, fmt.Sprintf("task: %d", fe.TID))
	}
	if errors.Is(fe.Cause, kernel.ErrDoubleMiss) || errors.Is(fe.Cause, kernel.ErrBadEvent) {
		lines = append(lines, fmt.Sprintf("event: %s", fe.Event))
	}
	if fe.Value != nil {
		lines = append(lines, fmt.Sprintf("value: %v", fe.Value))
	}
	if len(fe.Stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(fe.Stack), "\n") {
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// showFatal writes the diagnostic to the console and paints it on the
// framebuffer. It runs on the kernel goroutine and returns once drawn.
func showFatal(h hal.HAL, fe *kernel.FatalError) {
	lines := fatalLines(fe)
	if l := h.Logger(); l != nil {
		for _, line := range lines {
			l.WriteLineString(line)
		}
	}

	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return
	}
	fb.ClearRGB(0x80, 0, 0)
	drawLines(hal.NewFramebufferDisplayer(fb), lines, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	_ = fb.Present()
}

// drawLines wraps lines at the display width and stops at the bottom edge.
func drawLines(d drivers.Displayer, lines []string, fg color.RGBA) {
	font := &proggy.TinySZ8pt7b
	_, w := tinyfont.LineWidth(font, "0")
	fontWidth := int16(w)
	maxW, maxH := d.Size()
	if fontWidth <= 0 || maxW <= 0 {
		return
	}
	cols := maxW / fontWidth

	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+fatalFontHeight > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			x := int16(0)
			for _, r := range chunk {
				tinyfont.DrawChar(d, font, x, y+fatalFontOffset, r, fg)
				x += fontWidth
			}
			y += fatalFontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
