// printsim runs the whole firmware core on the host: simulated pins, PWM and
// ADC, stdin/stdout as the serial link and a local directory as the SD card.
// Useful for exercising G-code end to end without a board.
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v2"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"printhive/config"
	"printhive/debug"
	"printhive/hal"
	"printhive/printer"
	"printhive/sdfs"
)

func main() {
	app := &cli.App{
		Name:  "printsim",
		Usage: "run the printer core against simulated peripherals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "board",
				Value: "boards/sim.toml",
				Usage: "board description to load",
			},
			&cli.StringFlag{
				Name:  "sd",
				Value: ".",
				Usage: "directory standing in for the SD card",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log task activity to stderr",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func pin(name string) *gpiotest.Pin {
	return &gpiotest.Pin{N: name}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		debug.SetEnabled(true)
		debug.SetWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	}

	cfg, err := config.LoadFile(c.String("board"))
	if err != nil {
		return err
	}

	adc := hal.NewSimAdc(cfg.AdcResolution)
	// both thermistors read roughly room temperature (R close to R0) for the
	// default divider
	ambient := func() uint16 { return 372 }
	adc.SetSource(0, ambient)
	adc.SetSource(1, ambient)

	periph := printer.Peripherals{
		XStepPin: pin(cfg.Steppers.X.StepPin), XDirPin: pin(cfg.Steppers.X.DirPin),
		YStepPin: pin(cfg.Steppers.Y.StepPin), YDirPin: pin(cfg.Steppers.Y.DirPin),
		ZStepPin: pin(cfg.Steppers.Z.StepPin), ZDirPin: pin(cfg.Steppers.Z.DirPin),
		EStepPin: pin(cfg.Steppers.E.StepPin), EDirPin: pin(cfg.Steppers.E.DirPin),

		XEndstopPin: pin(cfg.Endstops.X.Pin),
		YEndstopPin: pin(cfg.Endstops.Y.Pin),
		ZEndstopPin: pin(cfg.Endstops.Z.Pin),

		Pwm:           hal.NewSimPwm(4096),
		Adc:           adc,
		HotendAdcPin:  0,
		HeatbedAdcPin: 1,

		UartRx: os.Stdin,
		UartTx: os.Stdout,

		Volumes: sdfs.NewDirVolumeManager(c.String("sd")),
		Timer:   hal.WallTimer{},
	}

	p, err := printer.New(cfg, periph)
	if err != nil {
		return err
	}
	p.Start()
	fmt.Fprintln(os.Stderr, "printsim ready; feed G-code on stdin")
	select {} // runs until interrupted, like the firmware main loop
}
