package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/mikeymonster/pkg/joystick"
)

func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = "/dev/input/js0"
	}
	firstLog := true
	j, err := joystick.WaitFor(ctx, jDev, time.Second, joystick.NewJoystick, func(err error) {
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
	})
	if err != nil {
		fmt.Printf("Gave up waiting for joystick: %v\n", err)
		return
	}
	fmt.Printf("Opened joystick\n")

	events := make(chan *joystick.Event)
	go func() {
		defer cancel()
		defer j.Close()
		err := joystick.Pump(ctx, j, events)
		fmt.Printf("Joystick failed: %v\n", err)
	}()

	state := joystick.NewState()
	for e := range events {
		kind := state.Apply(e)
		switch e.Type {
		case joystick.EventTypeAxis:
			v, _ := state.AxisValue(int(e.Number))
			fmt.Printf("%s %-12s init=%-5v normalised=%+.3f\n", e, kind, e.Init, v)
		default:
			fmt.Printf("%s %-12s init=%-5v\n", e, kind, e.Init)
		}
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
