package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errQuit = errors.New("quit")

// controller is the part of the session the command line drives.
type controller interface {
	SetSymbol(text string)
	SetPeriod(period string)
	SetInterval(interval string)
	SetWindows(fast, slow int)
	SetFee(bps float64)
	EnableSimulation(on bool)
	Refresh()
}

// windows tracks the simulation windows so :fast and :slow can be set one at a time.
type windows struct {
	fast, slow int
}

// execute applies one input line. Lines not starting with ':' are symbol text.
func execute(c controller, w *windows, line string) error {
	if !strings.HasPrefix(line, ":") {
		c.SetSymbol(line)
		return nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "q":
		return errQuit
	case "refresh":
		c.Refresh()
	case "period":
		if arg == "" {
			return fmt.Errorf(":period needs a value")
		}
		c.SetPeriod(arg)
	case "interval":
		if arg == "" {
			return fmt.Errorf(":interval needs a value")
		}
		c.SetInterval(arg)
	case "fast", "slow":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf(":%s needs a positive integer", cmd)
		}
		if cmd == "fast" {
			w.fast = n
		} else {
			w.slow = n
		}
		c.SetWindows(w.fast, w.slow)
	case "fee":
		bps, err := strconv.ParseFloat(arg, 64)
		if err != nil || bps < 0 {
			return fmt.Errorf(":fee needs a non-negative number")
		}
		c.SetFee(bps)
	case "sim":
		switch arg {
		case "on":
			c.EnableSimulation(true)
		case "off":
			c.EnableSimulation(false)
		default:
			return fmt.Errorf(":sim takes on or off")
		}
	default:
		return fmt.Errorf("unknown command :%s", cmd)
	}
	return nil
}
