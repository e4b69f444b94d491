package printer

import (
	"fmt"
	"strings"
	"time"

	"printhive/debug"
	"printhive/fabric"
	"printhive/gcode"
	"printhive/sdfs"
)

// sdTick paces the card worker; each active tick streams up to one block
const sdTick = 100 * time.Millisecond

// sdReadBlock is the per-tick read size while a print is running
const sdReadBlock = 128

// sdState is the card worker's handle bookkeeping
type sdState struct {
	volume    sdfs.Volume
	dir       sdfs.Dir
	file      sdfs.File
	hasVolume bool
	hasDir    bool
	hasFile   bool
	fileName  string
	running   bool
	clock     sdfs.Stopwatch

	// pending holds framed lines that did not fit in the dispatcher
	// queue. The card worker must never block on a full queue: the
	// dispatcher could be waiting for this task's acknowledgement
	pending []string
}

// closeAll releases every open handle, tolerating handles that are already
// gone so repeated shutdown events stay idempotent
func (s *sdState) closeAll(vm sdfs.VolumeManager) {
	if s.hasFile {
		if err := vm.CloseFile(s.file); err != nil {
			debug.Println("[" + sdCardLabel + "] " + err.Error())
		}
		s.hasFile = false
		s.fileName = ""
	}
	if s.hasDir {
		if err := vm.CloseDir(s.dir); err != nil {
			debug.Println("[" + sdCardLabel + "] " + err.Error())
		}
		s.hasDir = false
	}
	if s.hasVolume {
		if err := vm.CloseVolume(s.volume); err != nil {
			debug.Println("[" + sdCardLabel + "] " + err.Error())
		}
		s.hasVolume = false
	}
	s.running = false
	s.pending = nil
	s.clock.Stop()
}

// runSdCard owns the volume manager. It applies the SD command family and,
// while a print is running, streams file bytes into the dispatcher at low
// priority so live host traffic always wins
func (p *Printer) runSdCard() {
	vm := p.periph.Volumes
	sub := p.sub[TaskSdCard]
	rx := p.rx[TaskSdCard]
	tick := time.NewTicker(sdTick)
	defer tick.Stop()

	var state sdState
	line := make([]byte, 0, maxMessageLen)
	block := make([]byte, sdReadBlock)

	for {
		select {
		case <-p.quit:
			return
		case <-tick.C:
		}

		if e, ok := sub.TryNext(); ok && IsShutdown(e) {
			state.closeAll(vm)
		}

		if cmd, ok := rx.TryChanged(); ok && cmd.Destination&TaskSdCard.Bit() != 0 {
			p.applySdCommand(vm, &state, cmd.Cmd)
			p.signal.Signal(TaskSdCard)
		}

		for len(state.pending) > 0 {
			if !p.dispatch.TrySend(TaskMessage{Msg: state.pending[0], Priority: fabric.Low}, fabric.Low) {
				break
			}
			state.pending = state.pending[1:]
		}
		if len(state.pending) > 0 || !state.running || !state.hasFile {
			continue
		}

		n, err := vm.Read(state.file, block)
		if err != nil {
			p.report(sdCardLabel, "Read failed: "+err.Error())
			state.closeAll(vm)
			continue
		}
		if n == 0 {
			state.running = false
			state.clock.Stop()
			p.events.Publish(EOF{})
			continue
		}
		for _, b := range block[:n] {
			switch {
			case b == '\n':
				state.pending = append(state.pending, string(line))
				line = line[:0]
			case len(line) >= maxMessageLen:
				line = line[:0]
				debug.Println("[" + sdCardLabel + "] message too long")
			default:
				line = append(line, b)
			}
		}
	}
}

func (p *Printer) applySdCommand(vm sdfs.VolumeManager, state *sdState, cmd gcode.Command) {
	switch c := cmd.(type) {
	case gcode.M20:
		if !state.hasDir {
			p.report(sdCardLabel, "No card mounted")
			return
		}
		var list strings.Builder
		list.WriteString("Begin file list\n")
		err := vm.IterateDir(state.dir, func(e sdfs.DirEntry) {
			list.WriteString(e.Name)
			list.WriteByte('\n')
		})
		if err != nil {
			p.report(sdCardLabel, "List failed: "+err.Error())
			return
		}
		list.WriteString("End file list")
		select {
		case p.feedback <- list.String():
		default:
		}

	case gcode.M21:
		v, err := vm.OpenVolume(0)
		if err != nil {
			p.report(sdCardLabel, "Mount failed: "+err.Error())
			return
		}
		d, err := vm.OpenRootDir(v)
		if err != nil {
			vm.CloseVolume(v)
			p.report(sdCardLabel, "Mount failed: "+err.Error())
			return
		}
		state.volume, state.hasVolume = v, true
		state.dir, state.hasDir = d, true

	case gcode.M22:
		state.closeAll(vm)

	case gcode.M23:
		if !state.hasDir {
			p.report(sdCardLabel, "No card mounted")
			return
		}
		if state.hasFile {
			vm.CloseFile(state.file)
			state.hasFile = false
		}
		f, err := vm.OpenFileInDir(state.dir, c.File, sdfs.ReadOnly)
		if err != nil {
			p.report(sdCardLabel, "File not found: "+c.File)
			return
		}
		state.file, state.hasFile = f, true
		state.fileName = c.File
		state.clock.Reset()

	case gcode.M24:
		if !state.running {
			state.clock.Start()
			state.running = true
		}

	case gcode.M25:
		if state.running {
			state.clock.Stop()
			state.running = false
		}

	case gcode.M26:
		switch {
		case !state.hasFile:
			p.report(sdCardLabel, "Not printing")
		case state.running:
			p.report(sdCardLabel, "Printing "+state.fileName)
		default:
			p.report(sdCardLabel, "Paused "+state.fileName)
		}

	case gcode.M31:
		p.report(sdCardLabel, fmt.Sprintf("Time elapsed: %dms", state.clock.Measure().Milliseconds()))

	case gcode.M524:
		p.events.Publish(PrintAborted{})
		p.report(sdCardLabel, PrintAborted{}.String())
	}
}
