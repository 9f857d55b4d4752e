// Command holdspeedctl controls a running holdspeed daemon.
//
// Usage:
//
//	holdspeedctl [flags] <command> [args]
//
// Commands:
//
//	up, down        step the speed once
//	hold up|down    start a press-and-hold gesture
//	release         end the gesture and return to normal speed
//	reset           return to normal speed
//	settings set    change enabled, multiplier or divider
//	status          print the daemon's current speed state
//	catalog         print the supported speeds
//
// Gestures and settings go through the daemon's unix socket; status and
// catalog use its HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
