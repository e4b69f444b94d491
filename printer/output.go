package printer

import "printhive/debug"

// runOutput owns the UART TX half. It drains the feedback fifo in order and
// writes one line per message
func (p *Printer) runOutput() {
	for {
		select {
		case <-p.quit:
			return
		case msg := <-p.feedback:
			if len(msg) == 0 || msg[len(msg)-1] != '\n' {
				msg += "\n"
			}
			if _, err := p.periph.UartTx.Write([]byte(msg)); err != nil {
				debug.Println("[OUTPUT] cannot write to UART: " + err.Error())
			}
		}
	}
}
