package gcode

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"printhive/units"
)

func parseOne(c *qt.C, p *Parser, line string) Command {
	c.Helper()
	c.Assert(p.Parse([]byte(line)), qt.IsNil)
	cmd, ok := p.PickFromQueue()
	c.Assert(ok, qt.IsTrue, qt.Commentf("no command parsed from %q", line))
	return cmd
}

func TestParseG0Complete(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	cmd := parseOne(c, p, "G0 X10.1 Y9.0 Z1.0 F1200\n")
	g0, ok := cmd.(G0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(g0.X.Millimeters(), qt.Equals, 10.1)
	c.Assert(g0.Y.Millimeters(), qt.Equals, 9.0)
	c.Assert(g0.Z.Millimeters(), qt.Equals, 1.0)
	c.Assert(g0.F.MillimetersPerMinute(), qt.Equals, 1200.0)
}

func TestParseCommentOnly(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	c.Assert(p.Parse([]byte(";foo\n")), qt.IsNil)
	_, ok := p.PickFromQueue()
	c.Assert(ok, qt.IsFalse)
	c.Assert(p.Buffered(), qt.Equals, 0)
}

func TestParsePartialLineStaysBuffered(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	c.Assert(p.Parse([]byte("G20\nG20\nG21")), qt.IsNil)
	c.Assert(p.QueueLen(), qt.Equals, 2)
	c.Assert(p.Buffered(), qt.Equals, 3)

	c.Assert(p.Parse([]byte("\n")), qt.IsNil)
	c.Assert(p.QueueLen(), qt.Equals, 3)
	c.Assert(p.Buffered(), qt.Equals, 0)
}

func TestParseInlineComments(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	// an opening paren terminates the pending command, exactly like the
	// end of the line would
	cmd := parseOne(c, p, "G0 X1 (travel)\n")
	g0, ok := cmd.(G0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(g0.X.Millimeters(), qt.Equals, 1.0)
	c.Assert(g0.Y, qt.IsNil)

	cmd = parseOne(c, p, "G0 X5 ;rest of line ignored\n")
	g0 = cmd.(G0)
	c.Assert(g0.X.Millimeters(), qt.Equals, 5.0)
	c.Assert(g0.Y, qt.IsNil)
}

func TestParseMalformedLineDropped(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	c.Assert(p.Parse([]byte("G0 Xten\n")), qt.IsNil)
	_, ok := p.PickFromQueue()
	c.Assert(ok, qt.IsFalse)

	c.Assert(p.Parse([]byte("HELLO\n")), qt.IsNil)
	_, ok = p.PickFromQueue()
	c.Assert(ok, qt.IsFalse)
}

func TestDistanceUnitApplies(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	p.SetDistanceUnit(units.Inch)
	cmd := parseOne(c, p, "G1 X1.0 E0.5\n")
	g1 := cmd.(G1)
	c.Assert(g1.X.Millimeters(), qt.Equals, 25.4)
	c.Assert(g1.E.Millimeters(), qt.Equals, 12.7)
}

func TestTemperatureUnitApplies(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	cmd := parseOne(c, p, "M104 S210\n")
	c.Assert(cmd.(M104).S.Celsius(), qt.Equals, 210.0)

	p.SetTemperatureUnit(units.Kelvin)
	cmd = parseOne(c, p, "M140 S340\n")
	// a variable keeps the expected subtraction in float64 at run time, as in
	// the conversion; a constant expression would be folded exactly
	kelvin := 340.0
	c.Assert(cmd.(M140).S.Celsius(), qt.Equals, kelvin-273.15)
}

func TestParseArcWords(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	cmd := parseOne(c, p, "G2 X10 Y10 I10 J0 F600\n")
	g2 := cmd.(G2)
	c.Assert(g2.I.Millimeters(), qt.Equals, 10.0)
	c.Assert(g2.J.Millimeters(), qt.Equals, 0.0)
	c.Assert(g2.R, qt.IsNil)

	cmd = parseOne(c, p, "G3 X5 R2.5\n")
	g3 := cmd.(G3)
	c.Assert(g3.R.Millimeters(), qt.Equals, 2.5)
	c.Assert(g3.I, qt.IsNil)
}

func TestParseDwell(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	cmd := parseOne(c, p, "G4 P500 S2\n")
	g4 := cmd.(G4)
	c.Assert(*g4.P, qt.Equals, 500*time.Millisecond)
	c.Assert(*g4.S, qt.Equals, 2*time.Second)
}

func TestParseHomeFlags(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	cmd := parseOne(c, p, "G28 X Z\n")
	g28 := cmd.(G28)
	c.Assert(g28.X, qt.IsTrue)
	c.Assert(g28.Y, qt.IsFalse)
	c.Assert(g28.Z, qt.IsTrue)
}

func TestParseSdCommands(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	c.Assert(parseOne(c, p, "M20\n"), qt.Equals, Command(M20{}))
	c.Assert(parseOne(c, p, "M21\n"), qt.Equals, Command(M21{}))
	c.Assert(parseOne(c, p, "M23 FILE.GC\n"), qt.Equals, Command(M23{File: "FILE.GC"}))
	c.Assert(parseOne(c, p, "M24\n"), qt.Equals, Command(M24{}))
	c.Assert(parseOne(c, p, "M25\n"), qt.Equals, Command(M25{}))
	c.Assert(parseOne(c, p, "M524\n"), qt.Equals, Command(M524{}))
}

func TestParseTuningCommands(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	m207 := parseOne(c, p, "M207 F2400 S5 Z0.2\n").(M207)
	c.Assert(m207.F.MillimetersPerMinute(), qt.Equals, 2400.0)
	c.Assert(m207.S.Millimeters(), qt.Equals, 5.0)
	c.Assert(m207.Z.Millimeters(), qt.Equals, 0.2)

	m208 := parseOne(c, p, "M208 F1800 S1\n").(M208)
	c.Assert(m208.F.MillimetersPerMinute(), qt.Equals, 1800.0)
	c.Assert(m208.S.Millimeters(), qt.Equals, 1.0)

	m220 := parseOne(c, p, "M220 S50\n").(M220)
	c.Assert(m220.S, qt.Equals, 50.0)

	m155 := parseOne(c, p, "M155 S2\n").(M155)
	c.Assert(m155.S, qt.Equals, 2*time.Second)

	m106 := parseOne(c, p, "M106 S128\n").(M106)
	c.Assert(m106.S, qt.Equals, uint8(128))

	m149 := parseOne(c, p, "M149 K\n").(M149)
	c.Assert(m149.U, qt.Equals, units.Kelvin)
}

func TestParseNegativeAndSignedNumbers(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	g1 := parseOne(c, p, "G1 X-10.5 Y+3\n").(G1)
	c.Assert(g1.X.Millimeters(), qt.Equals, -10.5)
	c.Assert(g1.Y.Millimeters(), qt.Equals, 3.0)
}

func TestOverlongLineDiscarded(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'X'
	}
	c.Assert(p.Parse(long), qt.IsNil)
	c.Assert(p.Parse([]byte("\nG21\n")), qt.IsNil)

	// the oversized line vanished; the next one parses normally
	c.Assert(p.QueueLen(), qt.Equals, 1)
	cmd, _ := p.PickFromQueue()
	c.Assert(cmd, qt.Equals, Command(G21{}))
}

func TestQueueFull(t *testing.T) {
	c := qt.New(t)
	p := NewParser()

	for i := 0; i < 32; i++ {
		c.Assert(p.Parse([]byte("G21\n")), qt.IsNil)
	}
	c.Assert(p.Parse([]byte("G21\n")), qt.Equals, ErrQueueFull)
}
