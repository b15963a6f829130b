// Turret - YOLOv8 player tracking with a PID-driven pan motor
// Detects players and pass hand signals, then keeps the largest player centered.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-turret/internal/config"
	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/turret"
)

func main() {
	config.LoadEnv()

	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "turret: %v\n", err)
		os.Exit(2)
	}

	app, err := turret.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		_ = app.Shutdown()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	runErr := app.Run(ctx)
	cancel()

	if err := app.Shutdown(); err != nil {
		log.Warn("shutdown", "error", err)
	}
	if runErr != nil {
		log.Error("runtime error", "error", runErr)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables provide the defaults.
func parseFlags() (turret.Config, error) {
	cfg := turret.DefaultConfig()

	logLevel := flag.String("log-level", config.Env("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log per-frame decoder and controller traces")

	model := flag.String("model", cfg.ModelPath, "ONNX model path (TURRET_MODEL)")
	classes := flag.String("classes", cfg.ClassesPath, "Class names file, one per line (TURRET_CLASSES)")
	engine := flag.String("engine", cfg.Engine, "Inference engine: ort, dnn, auto")
	cuda := flag.Bool("cuda", false, "Use the CUDA provider or DNN target")

	source := flag.String("source", cfg.SourceKind, "Frame source: device, dir")
	device := flag.String("device", cfg.Camera.Device, "Capture device index or URL")
	dir := flag.String("dir", "", "Image sequence directory for -source dir")
	loop := flag.Bool("loop", false, "Loop the image sequence")
	cameraPreset := flag.String("camera-preset", camera.PresetDefault,
		"Capture preset: "+strings.Join(camera.PresetNames(), ", "))

	actuator := flag.String("actuator", cfg.Robot.Transport, "Actuator transport: serial, udp, ws, http, log (TURRET_ACTUATOR)")
	port := flag.String("port", cfg.Robot.Port, "Serial device (TURRET_SERIAL_PORT)")
	baud := flag.Int("baud", 0, "Serial baud rate (default 115200)")
	addr := flag.String("addr", "", "host:port for udp, URL for ws and http")

	preset := flag.String("preset", cfg.Preset, "Tracking preset: default, slow, aggressive")
	tuning := flag.String("tuning", "", "JSON tuning file applied over the preset")

	db := flag.String("db", cfg.DBPath, "Event journal path, empty to disable (TURRET_DB)")
	httpPort := flag.String("http", cfg.HTTPPort, "Dashboard port, empty to disable (TURRET_HTTP_PORT)")
	recordCommands := flag.Bool("record-commands", false, "Journal every pan command, not only stops and gestures")

	flag.Parse()

	// Debug traces are emitted at debug level
	level := *logLevel
	if *debugFlag || *debugTracking {
		level = "debug"
	}
	log.Init(level)

	camCfg := camera.GetPreset(*cameraPreset)
	if camCfg == nil {
		return cfg, fmt.Errorf("unknown camera preset %q", *cameraPreset)
	}
	camCfg.Device, camCfg.Dir, camCfg.Loop = *device, *dir, *loop

	cfg.Debug, cfg.DebugTracking = *debugFlag, *debugTracking
	cfg.ModelPath, cfg.ClassesPath, cfg.Engine, cfg.UseCUDA = *model, *classes, *engine, *cuda
	cfg.SourceKind, cfg.Camera = *source, *camCfg
	cfg.Robot.Transport, cfg.Robot.Port, cfg.Robot.Addr = *actuator, *port, *addr
	cfg.Robot.Serial.BaudRate = *baud
	cfg.Preset, cfg.TuningPath = *preset, *tuning
	cfg.DBPath, cfg.HTTPPort, cfg.RecordCommands = *db, *httpPort, *recordCommands

	return cfg, nil
}
