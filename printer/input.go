package printer

import (
	"printhive/debug"
	"printhive/fabric"
)

// runInput owns the UART RX half. It frames incoming bytes into
// newline-terminated messages and queues them at high priority, ahead of
// anything the SD reader is streaming. When a message overflows, the bytes
// framed so far and the overflowing byte are dropped; the rest of the line
// is framed as a new message
func (p *Printer) runInput() {
	buf := make([]byte, maxMessageLen)
	msg := make([]byte, 0, maxMessageLen)

	for !p.stopping() {
		n, err := p.periph.UartRx.Read(buf)
		for _, b := range buf[:n] {
			switch {
			case b == '\n':
				p.dispatch.Send(TaskMessage{Msg: string(msg), Priority: fabric.High}, fabric.High)
				msg = msg[:0]
			case len(msg) >= maxMessageLen:
				msg = msg[:0]
				debug.Println("[INPUT] message too long")
			default:
				msg = append(msg, b)
			}
		}
		if err != nil {
			// reader closed: the host link is gone
			return
		}
	}
}
