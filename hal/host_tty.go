//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"unicode/utf8"

	tty "github.com/mattn/go-tty"
	"go.uber.org/zap"
)

// startTTY switches the controlling terminal to raw mode and feeds every key
// into the terminal line's receive FIFO.
func (h *hostHAL) startTTY(ctx context.Context) error {
	t, err := tty.Open()
	if err != nil {
		return fmt.Errorf("open tty: %w", err)
	}
	restore, err := t.Raw()
	if err != nil {
		t.Close()
		return fmt.Errorf("raw tty: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := restore(); err != nil {
			h.log.Warn("restore tty", zap.Error(err))
		}
		t.Close()
	}()

	go func() {
		var buf [utf8.UTFMax]byte
		for {
			r, err := t.ReadRune()
			if err != nil {
				if ctx.Err() == nil {
					h.log.Warn("tty read", zap.Error(err))
				}
				return
			}
			n := utf8.EncodeRune(buf[:], r)
			if h.term.Feed(buf[:n]) < n {
				h.log.Debug("terminal input dropped", zap.Int32("rune", r))
			}
		}
	}()
	return nil
}
