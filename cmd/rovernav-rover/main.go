package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"rovernav/internal/config"
	"rovernav/internal/gps"
	"rovernav/internal/heading"
	"rovernav/internal/i2c"
	"rovernav/internal/motor"
	"rovernav/internal/sensors/mpu6050"
	"rovernav/internal/transport"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.LoadRover(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	radio, err := transport.OpenSerial(transport.SerialConfig{
		Device:      cfg.Radio.Device,
		Baud:        cfg.Radio.Baud,
		ReadTimeout: cfg.Radio.ReadTimeout,
	})
	if err != nil {
		log.Fatalf("radio open failed: %v", err)
	}
	defer radio.Close()

	gpsLink, err := transport.OpenSerial(transport.SerialConfig{
		Device:      cfg.GPS.Device,
		Baud:        cfg.GPS.Baud,
		ReadTimeout: cfg.GPS.ReadTimeout,
	})
	if err != nil {
		log.Fatalf("gps open failed: %v", err)
	}
	defer gpsLink.Close()

	bus, err := i2c.Open(cfg.I2C.Bus)
	if err != nil {
		log.Fatalf("i2c open failed: %v", err)
	}
	defer bus.Close()

	imu, err := mpu6050.New(bus.Dev(cfg.I2C.Addr))
	if err != nil {
		log.Fatalf("imu init failed: %v", err)
	}

	exec, err := motor.New(motor.Config{
		MaxPWM:         cfg.Motor.MaxPWM,
		CommandTimeout: cfg.Motor.CommandTimeout,
		Left:           cfg.Motor.Left,
		Right:          cfg.Motor.Right,
	})
	if err != nil {
		log.Fatalf("motor init failed: %v", err)
	}
	defer exec.Close()

	rt := &roverRuntime{
		radio: radio,
		gps:   gps.NewReader(gpsLink),
		imu:   imu,
		est: heading.New(heading.Config{
			Alpha:              cfg.Heading.Alpha,
			MountOffsetDeg:     cfg.Heading.MountOffsetDeg,
			CalibrationSamples: cfg.Heading.CalibrationSamples,
			CourseWeight:       cfg.Heading.CourseWeight,
			MinFusionSpeedMps:  cfg.Heading.MinFusionSpeedMps,
		}),
		exec:              exec,
		telemetryInterval: cfg.TelemetryInterval,
		idle:              cfg.LoopInterval,
	}

	log.Info("calibrating gyro bias, keep the rover still")
	if err := rt.calibrate(); err != nil {
		log.Fatalf("gyro calibration failed: %v", err)
	}

	log.Infof("rovernav-rover starting: radio=%s gps=%s", cfg.Radio.Device, cfg.GPS.Device)

	rt.run(ctx)

	log.Info("rovernav-rover stopping")
}
