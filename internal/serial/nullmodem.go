package serial

import (
	"log/slog"

	"github.com/zxcodes/gbcore/internal/addr"
	"github.com/zxcodes/gbcore/internal/bit"
)

// cyclesPerByte is the DMG's internal-clock bit rate (8192 Hz) times 8 bits.
const cyclesPerByte = 4096

// NullModem backs SB/SC without a physical link partner: it accepts every
// outgoing transfer, logs printable bytes as text (test ROMs commonly use
// the port as a crude console), and replies with a fixed byte as if no
// peer answered the shift-clock. Wiring a real link partner would mean
// replacing reply with a second NullModem's Write/Read pair; nothing in
// this build pairs two instances together.
type NullModem struct {
	onTransferDone func()
	sb, sc         byte
	shiftCountdown int
	transferring   bool

	synchronous bool
	reply       byte

	console *lineBuffer
}

type Option func(*NullModem)

// WithShiftClock makes transfers take cyclesPerByte to complete instead of
// resolving the instant the start bit is written. Needed by ROMs that poll
// the SC start bit expecting it to still be set for a few thousand cycles.
func WithShiftClock() Option { return func(m *NullModem) { m.synchronous = false } }

// New wires a serial port that calls done when a transfer completes; done
// should request the Serial interrupt on the owning interrupt controller.
func New(done func(), opts ...Option) *NullModem {
	m := &NullModem{
		onTransferDone: done,
		synchronous:    true,
		reply:          0xFF,
		console:        &lineBuffer{logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

func (m *NullModem) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		m.sb = value
	case addr.SC:
		m.sc = value
		m.tryStartTransfer()
	default:
		panic("serial.NullModem: invalid write address")
	}
}

func (m *NullModem) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return m.sb
	case addr.SC:
		return m.sc
	default:
		panic("serial.NullModem: invalid read address")
	}
}

func (m *NullModem) Tick(cycles int) {
	if m.synchronous || !m.transferring {
		return
	}
	m.shiftCountdown -= cycles
	if m.shiftCountdown <= 0 {
		m.finishTransfer()
	}
}

func (m *NullModem) Reset() {
	m.sb = 0x00
	m.sc = 0x00
	m.transferring = false
	m.shiftCountdown = 0
	m.console.reset()
}

// tryStartTransfer begins a transfer once the start bit (7) and internal
// clock select (0) are both set in SC; an external-clock request is left
// pending forever since no peer exists to drive the shift clock.
func (m *NullModem) tryStartTransfer() {
	if m.transferring || !bit.IsSet(7, m.sc) || !bit.IsSet(0, m.sc) {
		return
	}

	m.console.feed(m.sb)

	if m.synchronous {
		m.finishTransfer()
		return
	}
	m.transferring = true
	m.shiftCountdown = cyclesPerByte
}

func (m *NullModem) finishTransfer() {
	m.sb = m.reply
	m.sc = bit.Clear(7, m.sc)
	m.transferring = false
	m.shiftCountdown = 0
	if m.onTransferDone != nil {
		m.onTransferDone()
	}
}

// lineBuffer accumulates printable serial output until a newline, logging
// one structured line at a time instead of one log record per byte.
type lineBuffer struct {
	logger *slog.Logger
	buf    []byte
}

func (l *lineBuffer) feed(b byte) {
	if b == 0 || b == '\n' || b == '\r' {
		l.flush()
		return
	}
	l.buf = append(l.buf, b)
}

func (l *lineBuffer) flush() {
	if len(l.buf) == 0 {
		return
	}
	l.logger.Info("serial output", "line", string(l.buf))
	l.buf = l.buf[:0]
}

func (l *lineBuffer) reset() {
	l.buf = l.buf[:0]
}
