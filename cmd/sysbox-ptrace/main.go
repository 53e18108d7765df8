//
// Copyright 2019-2026 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/nestybox/sysbox-ptrace/config"
	"github.com/nestybox/sysbox-ptrace/handler"
	"github.com/nestybox/sysbox-ptrace/policy"
	"github.com/nestybox/sysbox-ptrace/process"
	"github.com/nestybox/sysbox-ptrace/tracer"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"golang.org/x/term"
)

const (
	usage = `ptrace-based syscall sandbox

sysbox-ptrace runs a program under ptrace and intercepts every syscall it
issues. Opens that may modify a file outside the temporary-file area are
reported back to the program as failed with EPERM.
`
)

// Globals to be populated at build time during Makefile processing.
var (
	version  string // extracted from VERSION file
	commitId string // latest git commit-id
	builtAt  string // build time
	builtBy  string // build owner
)

func newApp() *cli.App {

	app := cli.NewApp()
	app.Name = "sysbox-ptrace"
	app.Usage = usage
	app.UsageText = "sysbox-ptrace [global options] <executable>"
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log",
			Value: "/dev/stderr",
			Usage: "log file path",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log categories to include (debug, info, warning, error, fatal)",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration file",
		},
		cli.StringFlag{
			Name:  "mem-parser",
			Usage: "tracee memory access method (ptrace, iovec, procfs)",
		},
		cli.StringFlag{
			Name:  "output",
			Usage: "destination of the per-syscall trace lines (default /dev/stderr)",
		},
		cli.BoolFlag{
			Name:   "cpu-profiling",
			Usage:  "enable cpu-profiling data collection",
			Hidden: true,
		},
		cli.BoolFlag{
			Name:   "memory-profiling",
			Usage:  "enable memory-profiling data collection",
			Hidden: true,
		},
	}

	// show-version specialization.
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("sysbox-ptrace\n"+
			"\tversion: \t%s\n"+
			"\tcommit: \t%s\n"+
			"\tbuilt at: \t%s\n"+
			"\tbuilt by: \t%s\n",
			c.App.Version, commitId, builtAt, builtBy)
	}

	app.Before = setupLogging
	app.Action = runTracer

	return app
}

// Define 'debug' and 'log' settings.
func setupLogging(ctx *cli.Context) error {

	// Create/set the log-file destination.
	if path := ctx.GlobalString("log"); path != "" {
		f, err := os.OpenFile(
			path,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC,
			0666,
		)
		if err != nil {
			logrus.Fatalf(
				"Error opening log file %v: %v. Exiting ...",
				path, err,
			)
			return err
		}

		// Set a proper logging formatter.
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:     term.IsTerminal(int(f.Fd())),
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
		logrus.SetOutput(f)
		log.SetOutput(f)
	}

	// Set desired log-level.
	level, err := parseLogLevel(ctx.GlobalString("log-level"))
	if err != nil {
		logrus.Fatalf("%v. Exiting ...", err)
		return err
	}
	logrus.SetLevel(level)

	return nil
}

func parseLogLevel(logLevel string) (logrus.Level, error) {

	switch logLevel {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "fatal":
		return logrus.FatalLevel, nil
	}

	return logrus.InfoLevel, fmt.Errorf("log-level option '%v' not recognized", logLevel)
}

// loadConfig merges the config file (if any) with the command-line overrides.
func loadConfig(ctx *cli.Context, fs afero.Fs) (*config.Config, error) {

	cfg := config.Default()

	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(fs, path); err != nil {
			return nil, err
		}
	}

	if ctx.GlobalIsSet("mem-parser") {
		cfg.MemParser = ctx.GlobalString("mem-parser")
	}
	if ctx.GlobalIsSet("output") {
		cfg.Output = ctx.GlobalString("output")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Run cpu / memory profiling collection.
func runProfiler(ctx *cli.Context) (interface{ Stop() }, error) {

	cpuProfOn := ctx.GlobalBool("cpu-profiling")
	memProfOn := ctx.GlobalBool("memory-profiling")

	// Cpu and Memory profiling options seem to be mutually exclused in pprof.
	if cpuProfOn && memProfOn {
		return nil, fmt.Errorf("Unsupported parameter combination: cpu and memory profiling")
	}

	if cpuProfOn {
		return profile.Start(
			profile.CPUProfile,
			profile.ProfilePath("."),
			profile.NoShutdownHook,
			profile.Quiet,
		), nil
	}

	if memProfOn {
		return profile.Start(
			profile.MemProfile,
			profile.ProfilePath("."),
			profile.NoShutdownHook,
			profile.Quiet,
		), nil
	}

	return nil, nil
}

// sysbox-ptrace main-loop execution.
func runTracer(ctx *cli.Context) error {

	if ctx.NArg() != 1 {
		cli.ShowAppHelp(ctx)
		return cli.NewExitError("exactly one executable must be specified", 1)
	}
	path := ctx.Args().First()

	var fs = afero.NewOsFs()

	cfg, err := loadConfig(ctx, fs)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	prof, err := runProfiler(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if prof != nil {
		defer prof.Stop()
	}

	out, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Error opening output file %v: %v", cfg.Output, err), 1)
	}
	defer out.Close()

	// Initialize sysbox-ptrace's services.

	var processService = process.NewProcessService(fs)

	handlerService, err := handler.NewHandlerService(handler.DefaultHandlers(), nil)
	if err != nil {
		logrus.Fatalf("HandlerService initialization error (%v). Exiting ...", err)
	}
	if err := cfg.ApplyHandlers(handlerService); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	var policyService = policy.NewPolicyService(
		cfg.Policy.ConfinedMarker,
		cfg.Policy.InspectLimit,
	)

	syscallTracer, err := tracer.NewSyscallTracer(
		processService,
		handlerService,
		policyService,
		fs,
		cfg.MemParser,
		out,
	)
	if err != nil {
		logrus.Fatalf("SyscallTracer initialization error (%v). Exiting ...", err)
	}

	code, err := syscallTracer.Run(path)
	if err != nil {
		var lerr *process.LaunchError
		if errors.As(err, &lerr) {
			return cli.NewExitError(lerr.Error(), lerr.ExitCode())
		}
		logrus.Fatalf("Lost control of %s: %v. Exiting ...", path, err)
	}

	if code != 0 {
		return cli.NewExitError("", code)
	}

	return nil
}

//
// sysbox-ptrace main function
//
func main() {

	app := newApp()

	if err := app.Run(os.Args); err != nil {
		exitOnError(err)
	}
}

// Exit-coder errors have already been turned into an exit status by the cli
// package.
func exitOnError(err error) {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return
	}
	logrus.Fatalf("sysbox-ptrace: %v. Exiting ...", err)
}
