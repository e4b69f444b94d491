package printer

import (
	"fmt"
	"time"

	"printhive/gcode"
)

// plannerTick paces the motion worker. On silicon this task runs on the
// high-priority executor; a long move keeps it busy and the dispatcher's
// ack wait holds back further planner-targeted commands, which is the
// intended back-pressure
const plannerTick = 20 * time.Millisecond

func (p *Printer) runPlanner() {
	sub := p.sub[TaskPlanner]
	rx := p.rx[TaskPlanner]
	tick := time.NewTicker(plannerTick)
	defer tick.Stop()

	for {
		select {
		case <-p.quit:
			return
		case <-tick.C:
		}

		if e, ok := sub.TryNext(); ok {
			if _, isEOF := e.(EOF); isEOF {
				p.events.Publish(PrintCompleted{})
				p.report(plannerLabel, PrintCompleted{}.String())
			}
		}

		cmd, ok := rx.TryChanged()
		if !ok || cmd.Destination&TaskPlanner.Bit() == 0 {
			continue
		}

		switch cmd.Cmd.(type) {
		case gcode.M114:
			p.report(plannerLabel, fmt.Sprintf(
				"Head position: [X:%.2f] [Y:%.2f] [Z:%.2f]",
				p.planner.XPosition().Millimeters(),
				p.planner.YPosition().Millimeters(),
				p.planner.ZPosition().Millimeters(),
			))
		default:
			if _, err := p.planner.Execute(cmd.Cmd); err != nil {
				p.events.Publish(StepperFault{Err: err})
				p.report(plannerLabel, StepperFault{Err: err}.String())
			}
		}
		p.signal.Signal(TaskPlanner)
	}
}
