// Command oxy-verify consolidates a scene manifest, checks every layout property a ray tracing backend
// relies on, and exits non-zero when any property is violated.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-scene/engine/manifest"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/verify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK        = 0
	exitViolation = 1
	exitError     = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("oxy-verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	manifestPath := fs.String("manifest", "", "path to the YAML scene manifest (required)")
	workers := fs.Int("workers", 0, "override the manifest worker count")
	logLevel := fs.String("log-level", "", "override the manifest log level (debug, info, warn, error)")
	dev := fs.Bool("dev", false, "use the human readable development logger")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *manifestPath == "" {
		fmt.Fprintln(stderr, "oxy-verify: -manifest is required")
		fs.Usage()
		return exitError
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(stderr, "oxy-verify: %v\n", err)
		return exitError
	}
	if *workers > 0 {
		m.Workers = *workers
	}
	if *logLevel != "" {
		m.LogLevel = *logLevel
	}

	logger, err := newLogger(m, *dev, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "oxy-verify: %v\n", err)
		return exitError
	}
	defer func() {
		_ = logger.Sync()
	}()

	prof := profiler.NewProfiler(logger)

	stage := prof.Start("build")
	geometries, instances, err := m.Build()
	stage.Stop()
	if err != nil {
		logger.Error("failed to build manifest", zap.String("manifest", *manifestPath), zap.Error(err))
		return exitError
	}

	opts := append(m.Options(), scene.WithLogger(logger))
	var report *verify.Report
	err = prof.Measure("verify", func() error {
		var err error
		report, err = verify.Idempotent(func() (scene.ConsolidatedScene, error) {
			return scene.NewConsolidatedScene(geometries, instances, opts...)
		})
		return err
	})
	if err != nil {
		logger.Error("failed to consolidate scene", zap.String("scene", m.Name), zap.Error(err))
		fmt.Fprintf(stdout, "%s: FAIL\n  %v\n", m.Name, err)
		return exitViolation
	}

	fmt.Fprintf(stdout, "%s: %d geometries, %d instances, %d vertices, %d triangles\n",
		report.Scene, report.Geometries, report.Instances, report.Vertices, report.Triangles)
	for _, st := range prof.Stats() {
		fmt.Fprintf(stdout, "  %-8s %v\n", st.Stage, st.Elapsed)
	}
	if !report.OK() {
		fmt.Fprintf(stdout, "FAIL: %d violation(s)\n", len(report.Violations))
		for _, v := range report.Violations {
			fmt.Fprintf(stdout, "  %s\n", v)
		}
		return exitViolation
	}
	fmt.Fprintln(stdout, "OK")
	return exitOK
}

func newLogger(m *manifest.Manifest, dev bool, stderr io.Writer) (*zap.Logger, error) {
	lvl, err := m.Level()
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	if dev {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), lvl)
	return zap.New(core), nil
}
