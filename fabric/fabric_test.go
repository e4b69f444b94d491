package fabric

import (
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestPriorityChannelOrdersByPriority(t *testing.T) {
	c := qt.New(t)

	ch := NewPriorityChannel[string](8)
	ch.Send("sd-line", Low)
	ch.Send("host-line", High)
	ch.Send("other", Medium)

	c.Assert(ch.Receive(), qt.Equals, "host-line")
	c.Assert(ch.Receive(), qt.Equals, "other")
	c.Assert(ch.Receive(), qt.Equals, "sd-line")
}

func TestPriorityChannelKeepsArrivalOrderWithinPriority(t *testing.T) {
	c := qt.New(t)

	ch := NewPriorityChannel[string](8)
	ch.Send("G21", High)
	ch.Send("G90", High)
	ch.Send("G0 X10", High)

	// a streamed program must drain in the order it arrived
	c.Assert(ch.Receive(), qt.Equals, "G21")
	c.Assert(ch.Receive(), qt.Equals, "G90")
	c.Assert(ch.Receive(), qt.Equals, "G0 X10")
}

func TestPriorityChannelBlocksWhenFull(t *testing.T) {
	c := qt.New(t)

	ch := NewPriorityChannel[int](2)
	c.Assert(ch.TrySend(1, Low), qt.IsTrue)
	c.Assert(ch.TrySend(2, Low), qt.IsTrue)
	c.Assert(ch.TrySend(3, Low), qt.IsFalse)

	done := make(chan struct{})
	go func() {
		ch.Send(4, High) // parks until a slot frees up
		close(done)
	}()

	select {
	case <-done:
		c.Fatal("send completed on a full channel")
	case <-time.After(20 * time.Millisecond):
	}

	c.Assert(ch.Receive(), qt.Equals, 1)
	<-done
	c.Assert(ch.Receive(), qt.Equals, 4)
	c.Assert(ch.Len(), qt.Equals, 1)
}

func TestPriorityChannelConcurrentProducers(t *testing.T) {
	c := qt.New(t)

	ch := NewPriorityChannel[int](64)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ch.Send(base+j, Low)
			}
		}(i * 100)
	}
	wg.Wait()
	c.Assert(ch.Len(), qt.Equals, 40)
}

func TestWatchDeliversLatestOnly(t *testing.T) {
	c := qt.New(t)

	w := NewWatch[int]()
	rx := w.Receiver()

	_, ok := rx.TryChanged()
	c.Assert(ok, qt.IsFalse)

	w.Send(1)
	w.Send(2)

	// intermediate values are overwritten, never queued
	v, ok := rx.TryChanged()
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 2)

	_, ok = rx.TryChanged()
	c.Assert(ok, qt.IsFalse)
}

func TestWatchIndependentReceivers(t *testing.T) {
	c := qt.New(t)

	w := NewWatch[string]()
	a := w.Receiver()
	b := w.Receiver()

	w.Send("cmd")
	va, ok := a.TryChanged()
	c.Assert(ok, qt.IsTrue)
	c.Assert(va, qt.Equals, "cmd")

	vb, ok := b.TryChanged()
	c.Assert(ok, qt.IsTrue)
	c.Assert(vb, qt.Equals, "cmd")
}

func TestWatchChangedBlocks(t *testing.T) {
	c := qt.New(t)

	w := NewWatch[int]()
	rx := w.Receiver()

	got := make(chan int, 1)
	go func() { got <- rx.Changed() }()

	select {
	case <-got:
		c.Fatal("Changed returned before a publication")
	case <-time.After(20 * time.Millisecond):
	}

	w.Send(7)
	select {
	case v := <-got:
		c.Assert(v, qt.Equals, 7)
	case <-time.After(time.Second):
		c.Fatal("Changed never woke up")
	}
}

func TestSignalCollectsEveryAck(t *testing.T) {
	c := qt.New(t)

	s := NewSignal[uint8](7)
	// two workers acknowledge back to back; neither may be lost
	s.Signal(3)
	s.Signal(4)

	seen := map[uint8]bool{}
	seen[s.Wait()] = true
	seen[s.Wait()] = true
	c.Assert(seen[3], qt.IsTrue)
	c.Assert(seen[4], qt.IsTrue)

	_, ok := s.TryWait()
	c.Assert(ok, qt.IsFalse)
}

func TestPubSubFanOut(t *testing.T) {
	c := qt.New(t)

	bus := NewPubSub[int](8)
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(42)

	va, ok := a.TryNext()
	c.Assert(ok, qt.IsTrue)
	c.Assert(va, qt.Equals, 42)
	vb, ok := b.TryNext()
	c.Assert(ok, qt.IsTrue)
	c.Assert(vb, qt.Equals, 42)

	_, ok = a.TryNext()
	c.Assert(ok, qt.IsFalse)
}

func TestPubSubLaggingSubscriberLosesOldest(t *testing.T) {
	c := qt.New(t)

	bus := NewPubSub[int](8)
	sub := bus.Subscribe()

	for i := 0; i < 12; i++ {
		bus.Publish(i)
	}

	// the backlog holds the 8 newest events; 0..3 were evicted
	for want := 4; want < 12; want++ {
		v, ok := sub.TryNext()
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, want)
	}
	_, ok := sub.TryNext()
	c.Assert(ok, qt.IsFalse)
}

func TestPubSubLateSubscriberSeesNothing(t *testing.T) {
	c := qt.New(t)

	bus := NewPubSub[int](8)
	bus.Publish(1)
	sub := bus.Subscribe()

	_, ok := sub.TryNext()
	c.Assert(ok, qt.IsFalse)
}
