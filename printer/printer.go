package printer

import (
	"io"
	"sync"

	"periph.io/x/periph/conn/gpio"

	"printhive/config"
	"printhive/fabric"
	"printhive/hal"
	"printhive/sdfs"
	"printhive/stepper"
	"printhive/thermal"
)

// Channel sizing: a 16-deep ingress queue, a 16-deep egress fifo and an
// 8-event backlog per bus subscriber
const (
	dispatcherChannelLen = 16
	feedbackChannelLen   = 16
	eventBacklog         = 8
)

// Subsystem labels prefixed to every host-visible report line
const (
	hotendLabel  = "HOTEND"
	heatbedLabel = "HEATBED"
	plannerLabel = "PLANNER"
	sdCardLabel  = "SD-CARD"
)

// Peripherals collects the board adapters the core runs against. On real
// silicon these come out of the generated peripherals_init; on the host they
// are simulators and pipes. Ownership is fixed: the UART RX half belongs to
// the input task, TX to output, endstop and stepper pins to the planner, the
// volume manager to the sdcard task. PWM and ADC are shared under the
// printer's mutexes
type Peripherals struct {
	XStepPin, XDirPin gpio.PinIO
	YStepPin, YDirPin gpio.PinIO
	ZStepPin, ZDirPin gpio.PinIO
	EStepPin, EDirPin gpio.PinIO

	XEndstopPin, YEndstopPin, ZEndstopPin gpio.PinIn

	Pwm hal.Pwm
	Adc hal.Adc

	HotendAdcPin  hal.AdcPin
	HeatbedAdcPin hal.AdcPin

	UartRx io.Reader
	UartTx io.Writer

	Volumes sdfs.VolumeManager

	Timer hal.Timer
}

// Printer owns the task fabric and the per-task state built at boot
type Printer struct {
	cfg    *config.Runtime
	periph Peripherals

	// pwmMu and adcMu guard the shared peripherals. Neither lock may be
	// held across a wait on anything but the peripheral itself
	pwmMu sync.Mutex
	adcMu sync.Mutex

	dispatch *fabric.PriorityChannel[TaskMessage]
	feedback chan string
	watch    *fabric.Watch[TaskGCommand]
	signal   *fabric.Signal[TaskID]
	events   *fabric.PubSub[Event]

	planner *stepper.Planner
	hotend  *thermal.Actuator
	heatbed *thermal.Actuator
	fan     *FanController

	// receivers and subscriptions are created at construction so no
	// broadcast can slip past a worker that has not entered its loop yet
	rx  [taskCount]*fabric.WatchReceiver[TaskGCommand]
	sub [taskCount]*fabric.Subscriber[Event]

	quit chan struct{}
	wg   sync.WaitGroup
}

// New assembles a printer from a validated board description and its
// peripheral adapters
func New(cfg *config.Runtime, periph Peripherals) (*Printer, error) {
	p := &Printer{
		cfg:      cfg,
		periph:   periph,
		dispatch: fabric.NewPriorityChannel[TaskMessage](dispatcherChannelLen),
		feedback: make(chan string, feedbackChannelLen),
		watch:    fabric.NewWatch[TaskGCommand](),
		signal:   fabric.NewSignal[TaskID](int(taskCount)),
		events:   fabric.NewPubSub[Event](eventBacklog),
		quit:     make(chan struct{}),
	}

	newAxis := func(params config.StepperParams, step, dir gpio.PinIO) *stepper.Stepper {
		attachment := params.Attachment
		return stepper.New(step, dir, periph.Timer, params.Options, &attachment)
	}
	x := newAxis(cfg.Steppers.X, periph.XStepPin, periph.XDirPin)
	y := newAxis(cfg.Steppers.Y, periph.YStepPin, periph.YDirPin)
	z := newAxis(cfg.Steppers.Z, periph.ZStepPin, periph.ZDirPin)
	e := newAxis(cfg.Steppers.E, periph.EStepPin, periph.EDirPin)

	var endstops stepper.Endstops
	var err error
	if endstops.X, err = stepper.NewEndstop(periph.XEndstopPin, periph.Timer); err != nil {
		return nil, err
	}
	if endstops.Y, err = stepper.NewEndstop(periph.YEndstopPin, periph.Timer); err != nil {
		return nil, err
	}
	if endstops.Z, err = stepper.NewEndstop(periph.ZEndstopPin, periph.Timer); err != nil {
		return nil, err
	}

	p.planner = stepper.NewPlanner(x, y, z, e, cfg.Motion, endstops, periph.Timer)

	newActuator := func(params config.ActuatorParams, pin hal.AdcPin) *thermal.Actuator {
		thermistor := thermal.NewThermistor(
			periph.Adc, pin, cfg.AdcSampleTime, cfg.AdcResolution, params.Thermistor)
		heater := thermal.NewHeater(params.PwmChannel, params.Pid)
		return thermal.NewActuator(heater, thermistor)
	}
	p.hotend = newActuator(cfg.Hotend, periph.HotendAdcPin)
	p.heatbed = newActuator(cfg.Heatbed, periph.HeatbedAdcPin)
	p.fan = NewFanController(cfg.Fan.PwmChannel)

	for _, id := range []TaskID{TaskHotend, TaskHeatbed, TaskSdCard, TaskPlanner} {
		p.rx[id] = p.watch.Receiver()
		p.sub[id] = p.events.Subscribe()
	}

	return p, nil
}

// Planner exposes the motion planner, e.g. for position queries
func (p *Printer) Planner() *stepper.Planner {
	return p.planner
}

// Start spawns every worker task
func (p *Printer) Start() {
	p.spawn(p.runInput)
	p.spawn(p.runOutput)
	p.spawn(p.runDispatcher)
	p.spawn(func() { p.runThermal(TaskHotend, hotendLabel, p.hotend, p.cfg.Hotend, p.fan) })
	p.spawn(func() { p.runThermal(TaskHeatbed, heatbedLabel, p.heatbed, p.cfg.Heatbed, nil) })
	p.spawn(p.runPlanner)
	p.spawn(p.runSdCard)
}

func (p *Printer) spawn(run func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		run()
	}()
}

// Stop asks every task to wind down after its current command. The input
// task additionally ends when its UART reader is closed
func (p *Printer) Stop() {
	select {
	case <-p.quit:
		return
	default:
	}
	close(p.quit)
	// wake the dispatcher out of its blocking receive
	p.dispatch.TrySend(TaskMessage{}, fabric.High)
}

func (p *Printer) stopping() bool {
	select {
	case <-p.quit:
		return true
	default:
		return false
	}
}

// report queues a labelled line for the output task. Telemetry is not worth
// blocking a control loop for: when the fifo is full the line is dropped
func (p *Printer) report(label, msg string) {
	select {
	case p.feedback <- "[" + label + "] " + msg:
	default:
	}
}
