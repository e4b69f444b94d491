package sdfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func testVolume(c *qt.C) (*DirVolumeManager, string) {
	c.Helper()
	dir := c.TempDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "FILE.GC"), []byte("G21\nG90\n"), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "OTHER.GC"), []byte("G91\n"), 0o644), qt.IsNil)
	return NewDirVolumeManager(dir), dir
}

func TestOpenReadClose(t *testing.T) {
	c := qt.New(t)
	vm, _ := testVolume(c)

	v, err := vm.OpenVolume(0)
	c.Assert(err, qt.IsNil)
	d, err := vm.OpenRootDir(v)
	c.Assert(err, qt.IsNil)
	f, err := vm.OpenFileInDir(d, "FILE.GC", ReadOnly)
	c.Assert(err, qt.IsNil)

	buf := make([]byte, 4)
	n, err := vm.Read(f, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 4)
	c.Assert(string(buf[:n]), qt.Equals, "G21\n")

	n, err = vm.Read(f, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 4)

	// end of file is a zero-length read, not an error
	n, err = vm.Read(f, buf)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)

	c.Assert(vm.CloseFile(f), qt.IsNil)
	c.Assert(vm.CloseDir(d), qt.IsNil)
	c.Assert(vm.CloseVolume(v), qt.IsNil)
}

func TestIterateDir(t *testing.T) {
	c := qt.New(t)
	vm, _ := testVolume(c)

	v, err := vm.OpenVolume(0)
	c.Assert(err, qt.IsNil)
	d, err := vm.OpenRootDir(v)
	c.Assert(err, qt.IsNil)

	names := map[string]uint64{}
	c.Assert(vm.IterateDir(d, func(e DirEntry) { names[e.Name] = e.Size }), qt.IsNil)
	c.Assert(names["FILE.GC"], qt.Equals, uint64(8))
	c.Assert(names["OTHER.GC"], qt.Equals, uint64(4))
}

func TestErrorsAreDeviceErrors(t *testing.T) {
	c := qt.New(t)
	vm, _ := testVolume(c)

	_, err := vm.OpenVolume(1)
	c.Assert(err, qt.IsNotNil)
	var devErr *DeviceError
	c.Assert(err, qt.ErrorAs, &devErr)
	c.Assert(devErr.Op, qt.Equals, "open volume")

	v, _ := vm.OpenVolume(0)
	d, _ := vm.OpenRootDir(v)
	_, err = vm.OpenFileInDir(d, "MISSING.GC", ReadOnly)
	c.Assert(err, qt.ErrorAs, &devErr)

	_, err = vm.Read(File(99), nil)
	c.Assert(err, qt.ErrorAs, &devErr)

	c.Assert(vm.CloseFile(File(99)), qt.IsNotNil)
	c.Assert(vm.CloseDir(Dir(99)), qt.IsNotNil)
	c.Assert(vm.CloseVolume(Volume(99)), qt.IsNotNil)
}

func TestStopwatch(t *testing.T) {
	c := qt.New(t)

	var w Stopwatch
	c.Assert(w.Measure(), qt.Equals, time.Duration(0))

	w.Start()
	time.Sleep(10 * time.Millisecond)
	w.Stop()
	first := w.Measure()
	c.Assert(first >= 10*time.Millisecond, qt.IsTrue)

	// accumulates across pause/resume
	w.Start()
	time.Sleep(5 * time.Millisecond)
	w.Stop()
	c.Assert(w.Measure() > first, qt.IsTrue)

	w.Reset()
	c.Assert(w.Measure(), qt.Equals, time.Duration(0))
}
