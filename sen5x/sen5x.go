// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airquality/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// SensorAddress is the only I²C address the SEN5x responds to.
	SensorAddress uint16 = 0x69

	// SettlingTime is the minimum wait after Start() before the first Poll().
	SettlingTime = 2 * time.Second

	// MinReadDelay is the sensor's conversion latency between the read-values
	// command and the frame being available.
	MinReadDelay = 100 * time.Millisecond

	// The sensor produces a new measurement every second.
	measurementInterval = time.Second
)

type cmd uint16

// Structure to simplify sending commands to the device.
type command struct {
	cmdWord cmd
	// The expected number of bytes returned.
	responseSize int
	// Execution time before the response can be read, or before the next
	// command may be sent.
	delay time.Duration
	// True if the command is only accepted in measurement mode.
	needsMeasuring bool
}

var cmdStartMeasurement = command{
	cmdWord: 0x0021,
	delay:   50 * time.Millisecond,
}

var cmdStopMeasurement = command{
	cmdWord: 0x0104,
	delay:   200 * time.Millisecond,
}

var cmdReadDataReady = command{
	cmdWord:        0x0202,
	responseSize:   3,
	delay:          20 * time.Millisecond,
	needsMeasuring: true,
}

// The delay is taken from Opts.ReadDelay.
var cmdReadValues = command{
	cmdWord:        0x03c4,
	responseSize:   FrameSize,
	needsMeasuring: true,
}

var cmdSetTemperatureCompensation = command{
	cmdWord: 0x60b2,
	delay:   20 * time.Millisecond,
}

var cmdStartFanCleaning = command{
	cmdWord:        0x5607,
	delay:          20 * time.Millisecond,
	needsMeasuring: true,
}

var cmdReadProductName = command{
	cmdWord:      0xd014,
	responseSize: 48,
	delay:        20 * time.Millisecond,
}

var cmdReadSerialNumber = command{
	cmdWord:      0xd033,
	responseSize: 48,
	delay:        20 * time.Millisecond,
}

var cmdReadFirmwareVersion = command{
	cmdWord:      0xd100,
	responseSize: 3,
	delay:        20 * time.Millisecond,
}

var cmdReadDeviceStatus = command{
	cmdWord:      0xd206,
	responseSize: 6,
	delay:        20 * time.Millisecond,
}

var cmdDeviceReset = command{
	cmdWord: 0xd304,
	delay:   100 * time.Millisecond,
}

// Observer receives events that Poll recovers from locally. Implementations
// must not call back into the Dev.
type Observer interface {
	// ChecksumMismatch is called once per slot whose CRC failed. The slot is
	// absent from the returned Reading.
	ChecksumMismatch(err *ChecksumError)
	// TransportFailure is called for every failed bus operation.
	TransportFailure(err *TransportError)
}

// Opts holds the configuration options for the device.
type Opts struct {
	// ReadDelay is the wait between sending the read-values command and reading
	// the frame. Must be at least MinReadDelay. 0 means MinReadDelay.
	ReadDelay time.Duration
	// Observer is notified of checksum and transport failures. May be nil.
	Observer Observer
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	ReadDelay: MinReadDelay,
}

// Dev is a measurement session with a SEN5x sensor. It starts uninitialized;
// Start() moves it to measurement mode, Halt() and Reset() move it back.
//
// Dev owns its transport for its whole lifetime. Its methods are safe for
// concurrent use, but concurrent polls are serialized on the bus.
type Dev struct {
	t     Transport
	addr  uint16
	opts  Opts
	sleep func(time.Duration)

	mu        sync.Mutex
	measuring bool
	stop      chan struct{}
	wg        sync.WaitGroup
}

// New returns a session talking to the sensor at addr through t. The sensor is
// not commanded until Start() is called. opts may be nil.
func New(t Transport, addr uint16, opts *Opts) (*Dev, error) {
	if t == nil {
		return nil, errors.New("sen5x: nil transport")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.ReadDelay == 0 {
		o.ReadDelay = MinReadDelay
	}
	if o.ReadDelay < MinReadDelay {
		return nil, fmt.Errorf("sen5x: read delay %s is below the minimum of %s", o.ReadDelay, MinReadDelay)
	}
	return &Dev{t: t, addr: addr, opts: o, sleep: time.Sleep}, nil
}

// NewI2C returns a session with the sensor on an I²C bus. The constant
// SensorAddress should be supplied as the value for addr.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	return New(NewI2CTransport(b), addr, opts)
}

// Start puts the sensor into measurement mode. Callers must wait SettlingTime
// before the first Poll(). On error the session stays uninitialized; retrying
// is up to the caller. Calling Start while measuring is a no-op.
func (d *Dev) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.measuring {
		return nil
	}
	if _, err := d.exec(cmdStartMeasurement, nil, cmdStartMeasurement.delay); err != nil {
		return err
	}
	d.measuring = true
	return nil
}

// Measuring reports whether Start() succeeded and the session has not been
// halted or reset since.
func (d *Dev) Measuring() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measuring
}

// Poll reads the latest measurement. Slots whose CRC failed are absent and are
// reported to the Observer; the other slots are still returned.
//
// On a transport error the returned Reading is entirely absent and the session
// stays in measurement mode, so the next scheduled Poll can simply retry.
// Calling Poll before Start fails without touching the bus.
func (d *Dev) Poll() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var r Reading
	raw, err := d.exec(cmdReadValues, nil, d.opts.ReadDelay)
	if err != nil {
		return r, err
	}
	frame, err := DecodeFrame(raw)
	if err != nil {
		return r, err
	}
	if d.opts.Observer != nil {
		for ix, rec := range frame {
			if !rec.Valid {
				d.opts.Observer.ChecksumMismatch(&ChecksumError{Cmd: uint16(cmdReadValues.cmdWord), Index: ix, Got: rec.CRC, Want: rec.Expected})
			}
		}
	}
	return frame.Scale(), nil
}

// DataReady reports whether a new measurement is available since the last
// Poll.
func (d *Dev) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.readWords(cmdReadDataReady)
	if err != nil {
		return false, err
	}
	return words[0].Data[1] != 0, nil
}

// Halt stops measurement mode and terminates SenseContinuous if running.
// Implements conn.Resource. If the stop command fails the session stays in
// measurement mode.
func (d *Dev) Halt() error {
	d.haltContinuous()
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.measuring {
		return nil
	}
	if _, err := d.exec(cmdStopMeasurement, nil, cmdStopMeasurement.delay); err != nil {
		return err
	}
	d.measuring = false
	return nil
}

// Reset performs a device reset. The session returns to the uninitialized
// state and Start() must be called again.
func (d *Dev) Reset() error {
	d.haltContinuous()
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.exec(cmdDeviceReset, nil, cmdDeviceReset.delay); err != nil {
		return err
	}
	d.measuring = false
	return nil
}

// StartFanCleaning runs the fan at maximum speed for 10 seconds to blow out
// accumulated dust. Measurements are not updated while cleaning.
func (d *Dev) StartFanCleaning() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exec(cmdStartFanCleaning, nil, cmdStartFanCleaning.delay)
	return err
}

// SetTemperatureCompensation configures the device side correction of the
// temperature slot: offset is added to the reading, slope scales it by the
// ambient temperature, and timeConstant sets how fast a new offset is applied.
// The values are lost when the sensor is reset.
func (d *Dev) SetTemperatureCompensation(offset physic.Temperature, slope float64, timeConstant time.Duration) error {
	o := math.Round(float64(offset) / float64(physic.Kelvin) * 200)
	s := math.Round(slope * 10000)
	if o < math.MinInt16 || o > math.MaxInt16 {
		return fmt.Errorf("sen5x: temperature offset %s out of range", offset)
	}
	if s < math.MinInt16 || s > math.MaxInt16 {
		return fmt.Errorf("sen5x: temperature slope %g out of range", slope)
	}
	if timeConstant < 0 || timeConstant > math.MaxUint16*time.Second {
		return fmt.Errorf("sen5x: time constant %s out of range", timeConstant)
	}
	args := []uint16{uint16(int16(o)), uint16(int16(s)), uint16(timeConstant / time.Second)}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.exec(cmdSetTemperatureCompensation, args, cmdSetTemperatureCompensation.delay)
	return err
}

// ProductName returns the product name stored in the sensor, e.g. "SEN55".
func (d *Dev) ProductName() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.readWords(cmdReadProductName)
	if err != nil {
		return "", err
	}
	return wordsToString(words), nil
}

// SerialNumber returns the serial number set at the factory.
func (d *Dev) SerialNumber() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.readWords(cmdReadSerialNumber)
	if err != nil {
		return "", err
	}
	return wordsToString(words), nil
}

// FirmwareVersion returns the firmware version of the sensor.
func (d *Dev) FirmwareVersion() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.readWords(cmdReadFirmwareVersion)
	if err != nil {
		return 0, err
	}
	return words[0].Data[0], nil
}

// Status returns the device status register.
func (d *Dev) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.readWords(cmdReadDeviceStatus)
	if err != nil {
		return 0, err
	}
	return Status(uint32(words[0].Uint16())<<16 | uint32(words[1].Uint16())), nil
}

// Sense implements physic.SenseEnv. It polls the sensor and returns the
// temperature and humidity. Pressure is always 0. The session must be in
// measurement mode.
func (d *Dev) Sense(e *physic.Env) error {
	e.Pressure = 0
	r, err := d.Poll()
	if err != nil {
		return err
	}
	t, ok := r.Get(SlotTemperature)
	if !ok {
		return errors.New("sen5x: temperature absent from reading")
	}
	h, ok := r.Get(SlotHumidity)
	if !ok {
		return errors.New("sen5x: humidity absent from reading")
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(t*float64(physic.Kelvin))
	e.Humidity = physic.RelativeHumidity(h * float64(physic.PercentRH))
	return nil
}

// SenseContinuous implements physic.SenseEnv. Readings where temperature or
// humidity is absent are skipped. Call Halt() to terminate.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < measurementInterval {
		return nil, fmt.Errorf("sen5x: interval %s is shorter than the %s measurement interval", interval, measurementInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("sen5x: SenseContinuous already running")
	}
	if !d.measuring {
		return nil, &NotMeasuringError{Cmd: uint16(cmdReadValues.cmdWord)}
	}
	stop := make(chan struct{})
	d.stop = stop
	ch := make(chan physic.Env, 16)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e physic.Env
				if err := d.Sense(&e); err == nil {
					select {
					case ch <- e:
					default:
					}
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 200
	e.Humidity = physic.PercentRH / 100
	e.Pressure = 0
}

func (d *Dev) String() string {
	return fmt.Sprintf("sen5x@0x%02x", d.addr)
}

func (d *Dev) haltContinuous() {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// All commands to the sensor go through this function. d.mu must be held.
func (d *Dev) exec(c command, args []uint16, delay time.Duration) ([]byte, error) {
	if c.needsMeasuring && !d.measuring {
		return nil, &NotMeasuringError{Cmd: uint16(c.cmdWord)}
	}
	w := []byte{byte(c.cmdWord >> 8), byte(c.cmdWord)}
	if len(args) > 0 {
		w = append(w, common.EncodeWords(args)...)
	}
	if err := d.t.SendCommand(d.addr, w); err != nil {
		return nil, d.transportError("write", c, err)
	}
	d.sleep(delay)
	if c.responseSize == 0 {
		return nil, nil
	}
	r, err := d.t.ReadResponse(d.addr, c.responseSize)
	if err != nil {
		return nil, d.transportError("read", c, err)
	}
	return r, nil
}

// readWords executes c and verifies every word of the response. Any bad CRC
// fails the whole command.
func (d *Dev) readWords(c command) ([]common.Word, error) {
	r, err := d.exec(c, nil, c.delay)
	if err != nil {
		return nil, err
	}
	if len(r) != c.responseSize {
		return nil, &FrameSizeError{Len: len(r), Want: c.responseSize}
	}
	words, err := common.DecodeWords(r)
	if err != nil {
		return nil, err
	}
	for ix, w := range words {
		if !w.Valid() {
			return nil, &ChecksumError{Cmd: uint16(c.cmdWord), Index: ix, Got: w.CRC, Want: w.Expected()}
		}
	}
	return words, nil
}

func (d *Dev) transportError(op string, c command, err error) error {
	te := &TransportError{Op: op, Cmd: uint16(c.cmdWord), Err: err}
	if d.opts.Observer != nil {
		d.opts.Observer.TransportFailure(te)
	}
	return te
}

// wordsToString joins the data bytes of words into a NUL terminated string.
func wordsToString(words []common.Word) string {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = append(b, w.Data[:]...)
	}
	if ix := bytes.IndexByte(b, 0); ix >= 0 {
		b = b[:ix]
	}
	return strings.TrimSpace(string(b))
}

// Status is the device status register.
type Status uint32

const (
	// StatusFanSpeedWarning is set while the fan speed is out of range.
	StatusFanSpeedWarning Status = 1 << 21
	// StatusFanCleaning is set while fan cleaning is running.
	StatusFanCleaning Status = 1 << 19
	// StatusGasError reports a failure of the VOC/NOx sensor.
	StatusGasError Status = 1 << 7
	// StatusRHTError reports a failure of the humidity/temperature sensor.
	StatusRHTError Status = 1 << 6
	// StatusLaserFailure reports a failure of the particulate matter laser.
	StatusLaserFailure Status = 1 << 5
	// StatusFanFailure is set when the fan is blocked or broken.
	StatusFanFailure Status = 1 << 4
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusFanSpeedWarning, "fan speed warning"},
	{StatusFanCleaning, "fan cleaning"},
	{StatusGasError, "gas sensor error"},
	{StatusRHTError, "RHT error"},
	{StatusLaserFailure, "laser failure"},
	{StatusFanFailure, "fan failure"},
}

// Errors returns true if any error flag is set. Warnings and the fan cleaning
// flag are not errors.
func (s Status) Errors() bool {
	return s&(StatusGasError|StatusRHTError|StatusLaserFailure|StatusFanFailure) != 0
}

func (s Status) String() string {
	var parts []string
	for _, n := range statusNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
