package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"

	"github.com/tigerbot-team/mikeymonster/pkg/drive"
	"github.com/tigerbot-team/mikeymonster/pkg/rcmode"
	"github.com/tigerbot-team/mikeymonster/pkg/screen"
)

func main() {
	ctx := context.Background()

	device := "/dev/fb1"
	if len(os.Args) > 1 {
		device = os.Args[1]
	}
	panel := screen.NewPanel(golog.NewDevelopmentLogger("screentests"))
	go panel.Loop(ctx, device)

	status := rcmode.Status{
		Battery: rcmode.BatteryReport{Minimum: 9.5, Maximum: 12.6, Current: 11.8},
		Arm:     true,
		Light:   true,
	}
	panel.UpdateStatus(status)

	// Lines are "<volts> <left> <right>", e.g. "10.2 0.5 -0.5".
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			fmt.Println("Expected: <volts> <left> <right>")
			continue
		}
		var vals [3]float64
		for i, p := range parts {
			if vals[i], err = strconv.ParseFloat(p, 64); err != nil {
				fmt.Println("Bad number:", p)
				break
			}
		}
		if err != nil {
			continue
		}
		status.Battery.Current = vals[0]
		status.Drive = drive.Command{Left: vals[1], Right: vals[2]}
		status.Failsafe = !status.Failsafe
		panel.UpdateStatus(status)
	}
}
