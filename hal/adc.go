package hal

import "errors"

// AdcPin identifies an analog input channel
type AdcPin uint8

// Resolution is the conversion width in bits
type Resolution uint8

// MaxCount is the highest raw sample the converter can produce
func (r Resolution) MaxCount() uint64 {
	return (uint64(1) << r) - 1
}

// SampleTime is an opaque sampling-window selector forwarded to the silicon
type SampleTime uint8

// Adc is a single-shot analog converter. Read performs one DMA-backed
// conversion of pin into buf and returns when the transfer completes. The
// peripheral is shared between the two thermistors; the buffer is owned by
// exactly one caller
type Adc interface {
	SetSampleTime(t SampleTime)
	SampleTime() SampleTime
	SetResolution(r Resolution)
	Resolution() Resolution
	Read(pin AdcPin, buf []uint16) error
}

// ErrNoSource is returned by SimAdc for pins without a configured source
var ErrNoSource = errors.New("hal: no sample source for pin")

// SimAdc is an in-memory converter whose samples come from per-pin source
// functions, letting tests script temperature curves
type SimAdc struct {
	sampleTime SampleTime
	resolution Resolution
	sources    map[AdcPin]func() uint16
}

func NewSimAdc(resolution Resolution) *SimAdc {
	return &SimAdc{
		resolution: resolution,
		sources:    make(map[AdcPin]func() uint16),
	}
}

// SetSource installs the sample source for pin
func (a *SimAdc) SetSource(pin AdcPin, source func() uint16) {
	a.sources[pin] = source
}

func (a *SimAdc) SetSampleTime(t SampleTime) { a.sampleTime = t }

func (a *SimAdc) SampleTime() SampleTime { return a.sampleTime }

func (a *SimAdc) SetResolution(r Resolution) { a.resolution = r }

func (a *SimAdc) Resolution() Resolution { return a.resolution }

func (a *SimAdc) Read(pin AdcPin, buf []uint16) error {
	src, ok := a.sources[pin]
	if !ok {
		return ErrNoSource
	}
	if len(buf) > 0 {
		buf[0] = src()
	}
	return nil
}
