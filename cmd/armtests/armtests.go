package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/edaniels/golog"

	"github.com/tigerbot-team/mikeymonster/pkg/arm"
	"github.com/tigerbot-team/mikeymonster/pkg/maplinarm"
)

var CLI struct {
	Dummy bool `help:"Print commands instead of sending them."`
}

func main() {
	fmt.Println("---- armtests ----")
	kong.Parse(&CLI, kong.Description("Send arm commands typed on stdin."))

	log := golog.NewDevelopmentLogger("armtests")
	var dev arm.Device
	if CLI.Dummy {
		dev = maplinarm.Dummy()
	} else {
		a, err := maplinarm.Open()
		if err != nil {
			fmt.Println("Failed to open arm:", err)
			os.Exit(1)
		}
		defer a.Close()
		if err := a.Reset(); err != nil {
			fmt.Println("Failed to reset arm:", err)
		}
		dev = a
	}

	d := arm.NewDispatcher(dev, log)
	defer func() {
		_ = d.Send(arm.Stop)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("Enter a command (grip-open, base-cw, light-toggle, stop, ... or quit):")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" {
			break
		}
		c, ok := arm.ParseCommand(line)
		if !ok {
			fmt.Println("Unknown command", line)
			continue
		}
		if err := d.Send(c); err != nil {
			fmt.Println("Failed:", err)
		}
		fmt.Println("State:", d.State(), "light:", d.LightOn())
	}
}
