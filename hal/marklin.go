package hal

import (
	"sync"
	"time"
)

// Märklin 6051 command bytes.
const (
	MarklinGo          = 0x60
	MarklinStop        = 0x61
	MarklinSolenoidOff = 0x20
	MarklinStraight    = 0x21
	MarklinCurved      = 0x22
	MarklinReverse     = 15
	MarklinLights      = 16
	MarklinResetOff    = 0x80
	MarklinResetOn     = 0xC0

	marklinDumpBase   = 0x80
	marklinModuleBase = 0xC0
	marklinMaxTrain   = 80
)

// Marklin simulates the digital controller at the far end of the train line.
// Bytes written to it are parsed as commands; sensor reports are fed back into
// the attached line after the configured delay.
type Marklin struct {
	mu       sync.Mutex
	line     *Line
	delay    time.Duration
	pending  int
	running  bool
	reset    bool
	speeds   [marklinMaxTrain + 1]uint8
	switches map[uint8]byte
	sensors  []uint16
	commands uint64
}

// NewMarklin returns a controller with the given number of s88 sensor modules.
func NewMarklin(modules int, delay time.Duration) *Marklin {
	if modules <= 0 {
		modules = 5
	}
	return &Marklin{
		delay:    delay,
		pending:  -1,
		reset:    true,
		switches: make(map[uint8]byte),
		sensors:  make([]uint16, modules),
	}
}

// Attach sets the line sensor reports are delivered on.
func (m *Marklin) Attach(l *Line) {
	m.mu.Lock()
	m.line = l
	m.mu.Unlock()
}

func (m *Marklin) Write(p []byte) (int, error) {
	var reply []byte
	m.mu.Lock()
	for _, b := range p {
		reply = append(reply, m.handle(b)...)
	}
	line := m.line
	m.mu.Unlock()

	if len(reply) > 0 && line != nil {
		time.AfterFunc(m.delay, func() { line.Feed(reply) })
	}
	return len(p), nil
}

func (m *Marklin) handle(b byte) []byte {
	if m.pending >= 0 {
		cmd := byte(m.pending)
		m.pending = -1
		m.commands++
		switch {
		case cmd == MarklinStraight:
			m.switches[b] = 'S'
		case cmd == MarklinCurved:
			m.switches[b] = 'C'
		case b >= 1 && b <= marklinMaxTrain:
			m.speeds[b] = cmd
		}
		return nil
	}

	switch {
	case b <= MarklinLights+MarklinReverse:
		m.pending = int(b)
	case b == MarklinStraight, b == MarklinCurved:
		m.pending = int(b)
	case b == MarklinGo:
		m.commands++
		m.running = true
	case b == MarklinStop:
		m.commands++
		m.running = false
	case b == MarklinSolenoidOff:
		m.commands++
	case b == MarklinResetOff:
		m.reset = false
	case b == MarklinResetOn:
		m.reset = true
	case b > marklinDumpBase && b < marklinModuleBase:
		return m.dump(0, int(b-marklinDumpBase))
	case b > marklinModuleBase:
		n := int(b - marklinModuleBase)
		return m.dump(n-1, n)
	}
	return nil
}

// dump reports modules [from, to) as two bytes each, contact 1 in the high
// bit of the first byte.
func (m *Marklin) dump(from, to int) []byte {
	if to > len(m.sensors) {
		to = len(m.sensors)
	}
	var out []byte
	for i := from; i < to; i++ {
		out = append(out, byte(m.sensors[i]>>8), byte(m.sensors[i]))
		if m.reset {
			m.sensors[i] = 0
		}
	}
	return out
}

// Trip triggers contact (1..16) of module (1-based), as a train passing over it.
func (m *Marklin) Trip(module, contact int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if module < 1 || module > len(m.sensors) || contact < 1 || contact > 16 {
		return
	}
	m.sensors[module-1] |= 1 << uint(16-contact)
}

// Speed returns the last speed byte sent to train.
func (m *Marklin) Speed(train int) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if train < 1 || train > marklinMaxTrain {
		return 0
	}
	return m.speeds[train]
}

// Switch returns 'S', 'C' or 0 for a switch that was never thrown.
func (m *Marklin) Switch(n uint8) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switches[n]
}

func (m *Marklin) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Marklin) Commands() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands
}
