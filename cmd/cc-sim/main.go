// Command cc-sim runs one Cottoncandy MAC simulation and writes its
// topology and summary reports.
package main

import (
	"fmt"
	"os"

	"github.com/CottonCandy-UofT/cottoncandy-sim/cc"
)

func main() {
	cfg, err := cc.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc-sim:", err)
		os.Exit(1)
	}

	logger := cc.NewLogger(os.Stderr, cfg.LogLevel)

	driver := cc.NewDriver(cfg, logger)
	driver.Run()

	f, err := os.Create(cfg.FileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc-sim:", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := cc.WriteTopology(f, driver); err != nil {
		fmt.Fprintln(os.Stderr, "cc-sim:", err)
		os.Exit(1)
	}
	if err := cc.WriteSummary(os.Stdout, driver); err != nil {
		fmt.Fprintln(os.Stderr, "cc-sim:", err)
		os.Exit(1)
	}
}
