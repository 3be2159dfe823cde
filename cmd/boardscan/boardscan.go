package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/edaniels/golog"

	"github.com/tigerbot-team/mikeymonster/pkg/motorboard"
	"github.com/tigerbot-team/mikeymonster/pkg/thunderborg"
)

var CLI struct {
	Bus     string             `help:"I2C bus name; empty for the first one." env:"I2C_BUS"`
	Address motorboard.Address `help:"Address the board is expected at." default:"21"`
}

func main() {
	fmt.Println("---- boardscan ----")
	kong.Parse(&CLI, kong.Description("Look for ThunderBorgs on the I2C bus."))

	log := golog.NewLogger("boardscan")
	tb, err := thunderborg.Open(CLI.Bus, CLI.Address, log)
	if err != nil {
		fmt.Println("Failed to open bus:", err)
		os.Exit(1)
	}
	defer tb.Close()

	result, err := motorboard.Scan(tb, CLI.Address)
	if err != nil {
		fmt.Println("Scan failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Outcome: %v\n", result.Outcome)
	if result.Outcome == motorboard.Found {
		fmt.Printf("  ThunderBorg at %v\n", result.Address)
	}
	for _, a := range result.Addresses {
		fmt.Printf("  ThunderBorg at %v\n", a)
	}
	if err := result.Err(CLI.Address); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	min, max, err := tb.BatteryLimits()
	if err != nil {
		fmt.Println("Failed to read battery limits:", err)
		return
	}
	v, err := tb.BatteryVoltage()
	if err != nil {
		fmt.Println("Failed to read battery voltage:", err)
		return
	}
	fmt.Printf("Battery %.2f V (limits %.2f V to %.2f V)\n", v, min, max)
	fs, err := tb.CommsFailsafe()
	fmt.Printf("Comms failsafe: %v %v\n", fs, err)
}
