// Package rcmode is the remote-control session: it turns joystick events into
// motor and arm commands and owns the board and arm for its lifetime.
package rcmode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/tigerbot-team/mikeymonster/pkg/arm"
	"github.com/tigerbot-team/mikeymonster/pkg/config"
	"github.com/tigerbot-team/mikeymonster/pkg/drive"
	"github.com/tigerbot-team/mikeymonster/pkg/joystick"
	"github.com/tigerbot-team/mikeymonster/pkg/motorboard"
)

var ErrShutDown = errors.New("remote control session is shut down")

type BatteryReport struct {
	Minimum float64
	Maximum float64
	Current float64
}

// HalfWay is the voltage at which the battery indicator turns yellow.
func (b BatteryReport) HalfWay() float64 {
	return (b.Minimum + b.Maximum) / 2
}

func (b BatteryReport) String() string {
	return fmt.Sprintf("Battery monitoring settings:\n"+
		"  Minimum  (red)       %02.2f V\n"+
		"  Half-way (yellow)    %02.2f V\n"+
		"  Maximum  (green)     %02.2f V\n"+
		"\n"+
		"  Current voltage      %02.2f V\n",
		b.Minimum, b.HalfWay(), b.Maximum, b.Current)
}

// Status is a snapshot of the session for the screen and telemetry.
type Status struct {
	Time     time.Time
	Battery  BatteryReport
	Drive    drive.Command
	Failsafe bool
	Light    bool
	Arm      bool
}

type StatusSink interface {
	UpdateStatus(s Status)
}

type CuePlayer interface {
	Play(path string)
}

type Option func(s *Session)

// WithArm attaches the arm.  Without it the session is drive-only.
func WithArm(dev arm.Device) Option {
	return func(s *Session) {
		s.armDev = dev
	}
}

func WithStatusSinks(sinks ...StatusSink) Option {
	return func(s *Session) {
		s.sinks = append(s.sinks, sinks...)
	}
}

func WithCues(p CuePlayer) Option {
	return func(s *Session) {
		s.cues = p
	}
}

type Session struct {
	cfg      config.Config
	log      golog.Logger
	board    motorboard.Board
	failsafe *motorboard.FailsafeController
	power    drive.PowerProfile
	mixer    drive.Mixer
	state    *joystick.State

	armDev     arm.Device
	arm        *arm.Dispatcher
	armButtons []config.ArmButton

	sinks []StatusSink
	cues  CuePlayer

	lastDrive drive.Command

	shutdownOnce sync.Once
	shutDown     bool
	shutdownErr  error
}

// New checks the board is where the config says, puts it in a safe state and
// initialises the arm.  A missing or misaddressed board and a bad power
// profile are fatal.
func New(cfg config.Config, board motorboard.Board, prober motorboard.Prober, log golog.Logger, opts ...Option) (*Session, error) {
	power, err := drive.NewPowerProfile(cfg.Power.VoltageIn, cfg.Power.VoltageOut)
	if err != nil {
		return nil, err
	}
	addr, err := motorboard.Find(prober, cfg.Board.Address)
	if err != nil {
		return nil, err
	}
	log.Infow("Found motor board", "address", addr, "max_power", power.MaxPower)

	s := &Session{
		cfg:      cfg,
		log:      log,
		board:    board,
		failsafe: motorboard.NewFailsafeController(board, log),
		power:    power,
		mixer: drive.Mixer{
			MaxPower:   power.MaxPower,
			SlowFactor: cfg.Joystick.SlowFactor,
		},
		state:      joystick.NewState(),
		armButtons: cfg.Joystick.ArmButtons(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.board.MotorsOff(); err != nil {
		return nil, errors.Wrap(err, "failed to stop motors")
	}
	if err := s.board.SetIndicatorFollowsBattery(false); err != nil {
		return nil, errors.Wrap(err, "failed to take over indicator")
	}
	if err := s.board.SetIndicator(false, false, true); err != nil {
		return nil, errors.Wrap(err, "failed to set indicator")
	}

	if s.armDev != nil {
		s.initArm()
	}

	if report, err := s.BatteryReport(); err != nil {
		log.Warnw("Failed to read battery", "error", err)
	} else {
		log.Infow("Battery monitoring settings",
			"minimum", report.Minimum,
			"half_way", report.HalfWay(),
			"maximum", report.Maximum,
			"current", report.Current)
	}
	s.play(cfg.Sounds.Startup)
	return s, nil
}

func (s *Session) initArm() {
	if err := s.armDev.Reset(); err != nil {
		s.log.Warnw("Failed to reset arm", "error", err)
	}
	s.arm = arm.NewDispatcher(s.armDev, s.log)
	s.arm.OnEmergencyStop(func(err error) {
		s.play(s.cfg.Sounds.EmergencyStop)
	})
	// The arm starts with its light on.
	if err := s.arm.Send(arm.LightToggle); err != nil {
		s.log.Warnw("Failed to switch on arm light", "error", err)
	}
}

func (s *Session) Name() string {
	return "RC mode"
}

func (s *Session) MaxPower() float64 {
	return s.power.MaxPower
}

func (s *Session) BatteryReport() (BatteryReport, error) {
	var r BatteryReport
	var err error
	r.Minimum, r.Maximum, err = s.board.BatteryLimits()
	if err != nil {
		return r, errors.Wrap(err, "failed to read battery limits")
	}
	r.Current, err = s.board.BatteryVoltage()
	if err != nil {
		return r, errors.Wrap(err, "failed to read battery voltage")
	}
	return r, nil
}

// JoystickMissing is called while waiting for the joystick; the indicator
// shows blue.
func (s *Session) JoystickMissing(err error) {
	s.log.Debugw("Waiting for joystick", "error", err)
	if s.shutDown {
		return
	}
	if err := s.board.SetIndicator(false, false, true); err != nil {
		s.log.Warnw("Failed to set indicator", "error", err)
	}
}

// JoystickFound hands the indicator back to the battery monitor and, if
// configured, arms the board's comms failsafe.
func (s *Session) JoystickFound() error {
	if s.shutDown {
		return ErrShutDown
	}
	if err := s.board.SetIndicatorFollowsBattery(true); err != nil {
		return errors.Wrap(err, "failed to hand indicator to battery monitor")
	}
	if s.cfg.Board.CommsFailsafe {
		s.failsafe.SetFailsafe(true)
	}
	s.play(s.cfg.Sounds.JoystickFound)
	return nil
}

// HandleInputEvent reacts to axis motion and button presses; releases, the
// driver's initial state report and other events only update the joystick
// state.  Arm and drive failures are both returned; neither stops the other
// from being attempted.
func (s *Session) HandleInputEvent(e *joystick.Event) error {
	if s.shutDown {
		return ErrShutDown
	}
	switch s.state.Apply(e) {
	case joystick.KindAxisMotion, joystick.KindButtonDown:
		if e.Init {
			return nil
		}
	default:
		return nil
	}

	var err error
	if s.arm != nil {
		err = multierr.Append(err, s.handleArm(e))
	}
	cmd, mixErr := s.mix()
	if mixErr != nil {
		return multierr.Append(err, mixErr)
	}
	return multierr.Append(err, s.drive(cmd))
}

func (s *Session) mix() (drive.Command, error) {
	j := s.cfg.Joystick
	horizontal, err := drive.ReadAxis(s.state, j.RightAxis, j.InvertRightAxis)
	if err != nil {
		return drive.Command{}, errors.Wrap(err, "failed to read horizontal axis")
	}
	vertical, err := drive.ReadAxis(s.state, j.LeftAxis, j.InvertLeftAxis)
	if err != nil {
		return drive.Command{}, errors.Wrap(err, "failed to read vertical axis")
	}
	return s.mixer.Mix(horizontal, vertical, s.state.ButtonPressed(j.SlowButton)), nil
}

// drive scales the mixed command by the power profile and clamps it before
// sending; the right wheel is motor 1.
func (s *Session) drive(cmd drive.Command) error {
	out := cmd.Scale(s.power.MaxPower).Clamp(s.power.MaxPower)
	s.lastDrive = out
	return s.setMotors(out)
}

func (s *Session) setMotors(out drive.Command) error {
	err := errors.Wrap(s.board.SetMotorSpeed(motorboard.Motor1, out.Right), "failed to set right motor")
	return multierr.Append(err, errors.Wrap(s.board.SetMotorSpeed(motorboard.Motor2, out.Left), "failed to set left motor"))
}

// handleArm acts on the first held arm button.  The light only toggles on
// its own press; if no motion button is held the arm is stopped.
func (s *Session) handleArm(e *joystick.Event) error {
	cmd := arm.Stop
	for _, b := range s.armButtons {
		if !s.state.ButtonPressed(b.Button) {
			continue
		}
		if b.Command == arm.LightToggle && e.Type == joystick.EventTypeButton && int(e.Number) == b.Button {
			if err := s.arm.Send(arm.LightToggle); err != nil {
				return err
			}
		} else if b.Command.IsMotion() {
			cmd = b.Command
		}
		break
	}
	return s.arm.Send(cmd)
}

func (s *Session) Status() Status {
	st := Status{
		Time:     time.Now(),
		Drive:    s.lastDrive,
		Failsafe: s.failsafe.Enabled(),
		Arm:      s.arm != nil,
	}
	if s.arm != nil {
		st.Light = s.arm.LightOn()
	}
	report, err := s.BatteryReport()
	if err != nil {
		s.log.Debugw("Failed to read battery for status", "error", err)
	}
	st.Battery = report
	return st
}

func (s *Session) publishStatus() {
	if len(s.sinks) == 0 {
		return
	}
	st := s.Status()
	for _, sink := range s.sinks {
		sink.UpdateStatus(st)
	}
}

// Run handles events until the channel closes or ctx is cancelled, then shuts
// down.  While the comms failsafe is on the last drive command is resent
// every keepalive so the board's watchdog doesn't stop a steady stick.
func (s *Session) Run(ctx context.Context, events <-chan *joystick.Event) (err error) {
	defer func() {
		err = multierr.Append(err, s.Shutdown())
	}()

	var keepaliveC <-chan time.Time
	if s.failsafe.Enabled() {
		t := time.NewTicker(s.cfg.Board.Keepalive)
		defer t.Stop()
		keepaliveC = t.C
	}
	var statusC <-chan time.Time
	if len(s.sinks) > 0 && s.cfg.Telemetry.Interval > 0 {
		t := time.NewTicker(s.cfg.Telemetry.Interval)
		defer t.Stop()
		statusC = t.C
	}
	s.publishStatus()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Cancelled")
			return nil
		case e, ok := <-events:
			if !ok {
				s.log.Info("Joystick events finished")
				return nil
			}
			if err := s.HandleInputEvent(e); err != nil {
				if errors.Is(err, ErrShutDown) {
					return nil
				}
				s.log.Warnw("Failed to handle joystick event", "event", e, "error", err)
			}
		case <-keepaliveC:
			if err := s.setMotors(s.lastDrive); err != nil {
				s.log.Warnw("Failed to resend drive command", "error", err)
			}
		case <-statusC:
			s.publishStatus()
		}
	}
}

// Shutdown stops the arm and motors, disables the failsafe and leaves the
// indicator off.  Only the first call does anything; every step is attempted
// even if an earlier one fails.
func (s *Session) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.shutDown = true
		s.log.Info("Shutting down")
		var err error
		if s.arm != nil {
			err = multierr.Append(err, s.arm.Send(arm.Stop))
		}
		s.lastDrive = drive.Command{}
		err = multierr.Append(err, errors.Wrap(s.board.MotorsOff(), "failed to stop motors"))
		s.failsafe.SetFailsafe(false)
		err = multierr.Append(err, errors.Wrap(s.board.SetIndicatorFollowsBattery(false), "failed to take over indicator"))
		err = multierr.Append(err, errors.Wrap(s.board.SetIndicator(false, false, false), "failed to switch off indicator"))
		s.shutdownErr = err
	})
	return s.shutdownErr
}

func (s *Session) play(path string) {
	if s.cues != nil && path != "" {
		s.cues.Play(path)
	}
}
