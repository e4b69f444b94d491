// printhost is the host-side companion tool: it streams G-code files to the
// printer over the serial link, offers an interactive console and dumps the
// printer's report lines.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	cli "gopkg.in/urfave/cli.v2"

	"printhive/host/serial"
)

func portFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "device",
			Value: "/dev/ttyACM0",
			Usage: "serial device of the printer board",
		},
		&cli.IntFlag{
			Name:  "baud",
			Value: 115200,
			Usage: "serial baud rate",
		},
	}
}

func openPort(c *cli.Context) (serial.Port, error) {
	cfg := serial.DefaultConfig(c.String("device"))
	cfg.Baud = c.Int("baud")
	return serial.Open(cfg)
}

func main() {
	app := &cli.App{
		Name:  "printhost",
		Usage: "stream G-code to a printhive printer over serial",
		Commands: []*cli.Command{
			{
				Name:      "stream",
				Usage:     "send a G-code file line by line",
				ArgsUsage: "<file.gcode>",
				Flags:     portFlags(),
				Action:    runStream,
			},
			{
				Name:   "console",
				Usage:  "interactive G-code console",
				Flags:  portFlags(),
				Action: runConsole,
			},
			{
				Name:   "monitor",
				Usage:  "print every report line coming from the printer",
				Flags:  portFlags(),
				Action: runMonitor,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// drain copies printer reports to stdout until the port is closed
func drain(port serial.Port) {
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func runStream(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("stream: missing G-code file")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	port, err := openPort(c)
	if err != nil {
		return err
	}
	defer port.Close()
	go drain(port)

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := port.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		lines++
		// the board's dispatcher acknowledges each command internally;
		// a short pacing delay keeps the 16-slot ingress queue happy
		time.Sleep(10 * time.Millisecond)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Printf("streamed %d lines from %s\n", lines, path)
	return nil
}

func runConsole(c *cli.Context) error {
	port, err := openPort(c)
	if err != nil {
		return err
	}
	defer port.Close()
	go drain(port)

	fmt.Println("printhive console; 'quit' to exit")
	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return stdin.Err()
		}
		words, err := shlex.Split(stdin.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		if words[0] == "quit" || words[0] == "exit" {
			return nil
		}
		line := strings.Join(words, " ")
		if _, err := port.Write([]byte(line + "\n")); err != nil {
			return err
		}
	}
}

func runMonitor(c *cli.Context) error {
	port, err := openPort(c)
	if err != nil {
		return err
	}
	defer port.Close()
	drain(port)
	return nil
}
