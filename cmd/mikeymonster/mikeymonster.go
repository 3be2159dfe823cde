package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tigerbot-team/mikeymonster/pkg/arm"
	"github.com/tigerbot-team/mikeymonster/pkg/config"
	"github.com/tigerbot-team/mikeymonster/pkg/joystick"
	"github.com/tigerbot-team/mikeymonster/pkg/logging"
	"github.com/tigerbot-team/mikeymonster/pkg/maplinarm"
	"github.com/tigerbot-team/mikeymonster/pkg/motorboard"
	"github.com/tigerbot-team/mikeymonster/pkg/rcmode"
	"github.com/tigerbot-team/mikeymonster/pkg/screen"
	"github.com/tigerbot-team/mikeymonster/pkg/sound"
	"github.com/tigerbot-team/mikeymonster/pkg/telemetry"
	"github.com/tigerbot-team/mikeymonster/pkg/thunderborg"
)

var CLI struct {
	Config     string `help:"Config file; defaults are used if it doesn't exist." default:"/cfg/mikeymonster.yaml" type:"path"`
	DumpConfig bool   `help:"Print the effective config and exit."`
	Debug      bool   `help:"Debug logging."`
	DummyBoard bool   `help:"Print motor board commands instead of sending them."`
	DummyArm   bool   `help:"Print arm commands instead of sending them."`
}

func main() {
	fmt.Println("---- Mikey Monster ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI,
		kong.Name("mikeymonster"),
		kong.Description("Drive the MonsterBorg and its arm from a joystick."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	if CLI.DumpConfig {
		data, err := cfg.Dump()
		if err != nil {
			fmt.Println("Failed to dump config:", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(data)
		return
	}

	log := logging.New("mikeymonster", CLI.Debug, cfg.Logging)
	defer func() {
		_ = log.Sync()
	}()
	if err := run(cfg, log); err != nil {
		log.Errorw("Exiting", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log golog.Logger) error {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registerSignalHandlers(cancel, log)

	board, prober, closeBoard, err := openBoard(cfg, log)
	if err != nil {
		return err
	}
	defer closeBoard()

	cues := sound.NewPlayer(log)
	defer cues.Close()
	opts := []rcmode.Option{rcmode.WithCues(cues)}

	armDev, closeArm, err := openArm(cfg, log)
	if err != nil {
		return err
	}
	defer closeArm()
	if armDev != nil {
		opts = append(opts, rcmode.WithArm(armDev))
	}

	if cfg.Screen.Device != "" {
		panel := screen.NewPanel(log)
		go panel.Loop(ctx, cfg.Screen.Device)
		opts = append(opts, rcmode.WithStatusSinks(panel))
	}
	if cfg.Telemetry.URL != "" {
		rec := telemetry.New(cfg.Telemetry, "mikeymonster", log)
		defer rec.Close()
		opts = append(opts, rcmode.WithStatusSinks(rec))
	}

	session, err := rcmode.New(cfg, board, prober, log, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Shutdown(); err != nil {
			log.Warnw("Shutdown incomplete", "error", err)
		}
	}()
	if report, err := session.BatteryReport(); err == nil {
		fmt.Println(report)
	}

	log.Info("Waiting for joystick, press CTRL+C to abort")
	j, err := joystick.WaitFor(ctx, cfg.Joystick.Device, cfg.Joystick.RetryInterval, joystick.NewJoystick, session.JoystickMissing)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("User aborted")
			return nil
		}
		return err
	}
	log.Info("Found a joystick")
	if err := session.JoystickFound(); err != nil {
		_ = j.Close()
		return err
	}

	log.Info("Press CTRL+C to quit")
	events := make(chan *joystick.Event)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := joystick.Pump(gctx, j, events)
		if gctx.Err() != nil || errors.Is(err, os.ErrClosed) {
			return nil
		}
		return errors.Wrap(err, "joystick failed")
	})
	g.Go(func() error {
		// Closing the joystick unblocks the reader.
		defer j.Close()
		return session.Run(gctx, events)
	})
	return g.Wait()
}

func openBoard(cfg config.Config, log golog.Logger) (motorboard.Board, motorboard.Prober, func(), error) {
	if CLI.DummyBoard {
		d := motorboard.Dummy()
		return d, d, func() {}, nil
	}
	tb, err := thunderborg.Open(cfg.Board.Bus, cfg.Board.Address, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return tb, tb, func() {
		if err := tb.Close(); err != nil {
			log.Warnw("Failed to close I2C bus", "error", err)
		}
	}, nil
}

// openArm returns a nil device if the arm is disabled, or missing and
// optional.
func openArm(cfg config.Config, log golog.Logger) (arm.Device, func(), error) {
	if !cfg.Arm.Enabled {
		return nil, func() {}, nil
	}
	if CLI.DummyArm {
		return maplinarm.Dummy(), func() {}, nil
	}
	a, err := maplinarm.Open()
	if err != nil {
		if cfg.Arm.Optional {
			log.Warnw("Arm not found, driving without it", "error", err)
			return nil, func() {}, nil
		}
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			log.Warnw("Failed to close arm", "error", err)
		}
	}, nil
}

func registerSignalHandlers(cancelFunc context.CancelFunc, log golog.Logger) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Infow("Signal", "signal", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
