// Package main provides the entry point for rv32sim, a RISC-V RV32IM
// instruction-set simulator with a two-pass assembler, a single-cycle
// engine, and a five-stage pipeline engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rv32edu/rv32sim/asm"
	"github.com/rv32edu/rv32sim/config"
	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/timing/pipeline"
)

var (
	usePipeline = flag.Bool("pipeline", false, "Run on the five-stage pipeline engine instead of single-cycle")
	hazardFlag  = flag.Bool("hazard", true, "Enable pipeline load-use hazard detection (pipeline mode only)")
	forwardFlag = flag.Bool("forward", true, "Enable pipeline EX-stage forwarding (pipeline mode only)")
	configPath  = flag.String("config", "", "Path to a JSON config file")
	breakFlags  = flag.String("break", "", "Comma-separated breakpoint addresses (decimal or 0x-hex)")
	verbose     = flag.Bool("v", false, "Print registers and statistics after the run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32sim [options] <program.s>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// A toggle flag given on the command line overrides the config file;
	// an omitted flag leaves the file's (or the default) value in place.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hazard":
			cfg.HazardDetection = *hazardFlag
		case "forward":
			cfg.Forwarding = *forwardFlag
		}
	})

	breakpoints, err := parseBreakpoints(*breakFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}
	cfg.Breakpoints = append(cfg.Breakpoints, breakpoints...)

	srcPath := flag.Arg(0)
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}

	result := asm.NewAssembler().Assemble(string(src))
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", srcPath, e.Error())
		}
		os.Exit(1)
	}

	if *usePipeline {
		os.Exit(runPipeline(result, cfg))
	}
	os.Exit(runSingleCycle(result, cfg))
}

func runSingleCycle(result *asm.AssembleResult, cfg *config.Config) int {
	e := emu.NewEmulator(emu.WithStackPointer(cfg.StackTop))
	e.LoadText(result.TextBase, result.Text)
	e.LoadData(result.DataBase, result.Data)
	for _, bp := range cfg.Breakpoints {
		e.AddBreakpoint(bp)
	}

	res := e.Run()
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", res.Err)
		return 1
	}

	if *verbose {
		fmt.Printf("halted=%v paused=%v\n", res.Halted, res.Paused)
		fmt.Printf("cycles=%d instructions=%d\n", e.Cycles(), e.Instructions())
		fmt.Printf("a0=%d (x10)\n", e.RegFile().Read(10))
	}
	return int(e.RegFile().Read(10))
}

func runPipeline(result *asm.AssembleResult, cfg *config.Config) int {
	p := pipeline.NewPipeline(
		pipeline.WithStackPointer(cfg.StackTop),
		pipeline.WithHazardDetection(cfg.HazardDetection),
		pipeline.WithForwarding(cfg.Forwarding),
	)
	p.LoadText(result.TextBase, result.Text)
	p.LoadData(result.DataBase, result.Data)
	for _, bp := range cfg.Breakpoints {
		p.AddBreakpoint(bp)
	}

	res := p.Run(0)
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", res.Err)
		return 1
	}

	if *verbose {
		stats := p.Statistics()
		fmt.Printf("halted=%v paused=%v\n", res.Halted, res.Paused)
		fmt.Printf("cycles=%d instructions=%d cpi=%.2f stalls=%d flushes=%d forwards=%d\n",
			stats.Cycles, stats.Instructions, stats.CPI(), stats.Stalls, stats.Flushes, stats.Forwards)
		fmt.Printf("a0=%d (x10)\n", p.RegFile().Read(10))
	}
	return int(p.RegFile().Read(10))
}

func parseBreakpoints(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(part), "0x"), hexOrDec(part), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed breakpoint address %q: %w", part, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

func hexOrDec(s string) int {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return 16
	}
	return 10
}
