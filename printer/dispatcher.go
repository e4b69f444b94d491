package printer

import (
	"printhive/debug"
	"printhive/gcode"
	"printhive/units"
)

// runDispatcher pops raw lines off the priority channel, parses them and
// broadcasts each resulting command with its destination mask. It then waits
// until every addressed worker has acknowledged before touching the next
// line: that synchronous round-trip is the system's back-pressure and
// ordering mechanism
func (p *Printer) runDispatcher() {
	parser := gcode.NewParser()

	for {
		msg := p.dispatch.Receive()
		if p.stopping() {
			return
		}
		if err := parser.Parse(append([]byte(msg.Msg), '\n')); err != nil {
			debug.Println("[COMMAND DISPATCHER] " + err.Error())
		}

		for {
			cmd, ok := parser.PickFromQueue()
			if !ok {
				break
			}

			// unit switches act on the parser itself and address no
			// workers; they are still broadcast with an empty mask so
			// ordering stays observable
			switch c := cmd.(type) {
			case gcode.G20:
				parser.SetDistanceUnit(units.Inch)
			case gcode.G21:
				parser.SetDistanceUnit(units.Millimeter)
			case gcode.M149:
				parser.SetTemperatureUnit(c.U)
			}

			destination := DestinationOf(cmd)
			p.watch.Send(TaskGCommand{Cmd: cmd, Destination: destination})

			received := uint8(0)
			for received&destination != destination {
				id := p.signal.Wait()
				received |= id.Bit()
			}
		}
	}
}
