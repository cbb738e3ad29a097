// Package config loads YAML configuration for the base station and rover
// binaries. Each binary validates only its own section, so one file can
// serve both roles.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rovernav/internal/motor"
)

type Waypoint struct {
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type BaseConfig struct {
	Waypoints []Waypoint `yaml:"waypoints"`

	Controller string `yaml:"controller"`

	Nav NavConfig `yaml:"nav"`

	Serial SerialConfig `yaml:"serial"`

	Web    WebConfig    `yaml:"web"`
	UDP    UDPConfig    `yaml:"udp"`
	CSV    CSVConfig    `yaml:"csv"`
	Record RecordConfig `yaml:"record"`
	Replay ReplayConfig `yaml:"replay"`
	Sim    SimConfig    `yaml:"sim"`

	// LoopInterval is the idle delay between control-loop passes.
	LoopInterval time.Duration `yaml:"loop_interval"`
}

type NavConfig struct {
	PositionThresholdM float64 `yaml:"position_threshold_m"`
	MinDistanceFactor  float64 `yaml:"min_distance_factor"`
	Policy             string  `yaml:"policy"`
	ApproachSwitchM    float64 `yaml:"approach_switch_m"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type CSVConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Enable bool    `yaml:"enable"`
	Path   string  `yaml:"path"`
	Speed  float64 `yaml:"speed"`
	Loop   bool    `yaml:"loop"`
}

// SimConfig drives the base station against the kinematic rover model
// instead of a live radio link.
type SimConfig struct {
	Enable      bool          `yaml:"enable"`
	StartLatDeg float64       `yaml:"start_lat_deg"`
	StartLonDeg float64       `yaml:"start_lon_deg"`
	HeadingDeg  float64       `yaml:"heading_deg"`
	TrackWidthM float64       `yaml:"track_width_m"`
	MaxSpeedMps float64       `yaml:"max_speed_mps"`
	MaxPWM      float64       `yaml:"max_pwm"`
	Interval    time.Duration `yaml:"interval"`
}

type RoverConfig struct {
	Radio SerialConfig `yaml:"radio"`
	GPS   SerialConfig `yaml:"gps"`

	I2C     I2CConfig     `yaml:"i2c"`
	Motor   MotorConfig   `yaml:"motor"`
	Heading HeadingConfig `yaml:"heading"`

	// TelemetryInterval is the minimum spacing between GPS: lines.
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
	LoopInterval      time.Duration `yaml:"loop_interval"`
}

type I2CConfig struct {
	Bus  string `yaml:"bus"`
	Addr uint16 `yaml:"addr"`
}

type MotorConfig struct {
	Left           motor.Pins    `yaml:"left"`
	Right          motor.Pins    `yaml:"right"`
	MaxPWM         int           `yaml:"max_pwm"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

type HeadingConfig struct {
	Alpha              float64 `yaml:"alpha"`
	MountOffsetDeg     float64 `yaml:"mount_offset_deg"`
	CalibrationSamples int     `yaml:"calibration_samples"`
	CourseWeight       float64 `yaml:"course_weight"`
	MinFusionSpeedMps  float64 `yaml:"min_fusion_speed_mps"`
}

type fileConfig struct {
	Base  BaseConfig  `yaml:"base"`
	Rover RoverConfig `yaml:"rover"`
}

func LoadBase(path string) (BaseConfig, error) {
	var fc fileConfig
	if err := read(path, &fc); err != nil {
		return BaseConfig{}, err
	}
	cfg := fc.Base

	if len(cfg.Waypoints) == 0 {
		return BaseConfig{}, fmt.Errorf("base.waypoints is required")
	}
	if cfg.Controller == "" {
		cfg.Controller = "compact"
	}
	if cfg.Nav.Policy == "" {
		cfg.Nav.Policy = "segment"
	}
	if cfg.Nav.Policy != "segment" && cfg.Nav.Policy != "approach" {
		return BaseConfig{}, fmt.Errorf("base.nav.policy must be segment or approach")
	}
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = 20 * time.Millisecond
	}

	if !cfg.Replay.Enable && !cfg.Sim.Enable && cfg.Serial.Device == "" {
		return BaseConfig{}, fmt.Errorf("base.serial.device is required")
	}
	if cfg.Serial.Baud <= 0 {
		cfg.Serial.Baud = 57600
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.UDP.Enable && cfg.UDP.Dest == "" {
		return BaseConfig{}, fmt.Errorf("base.udp.dest is required when base.udp.enable is true")
	}
	if cfg.CSV.Enable && cfg.CSV.Path == "" {
		return BaseConfig{}, fmt.Errorf("base.csv.path is required when base.csv.enable is true")
	}

	if cfg.Record.Enable && cfg.Record.Path == "" {
		return BaseConfig{}, fmt.Errorf("base.record.path is required when base.record.enable is true")
	}
	if cfg.Replay.Enable {
		if cfg.Replay.Path == "" {
			return BaseConfig{}, fmt.Errorf("base.replay.path is required when base.replay.enable is true")
		}
		if cfg.Replay.Speed == 0 {
			cfg.Replay.Speed = 1
		}
		if cfg.Replay.Speed < 0 {
			return BaseConfig{}, fmt.Errorf("base.replay.speed must be > 0")
		}
	}
	if cfg.Record.Enable && cfg.Replay.Enable {
		return BaseConfig{}, fmt.Errorf("base.record and base.replay cannot both be enabled")
	}
	if cfg.Sim.Enable && cfg.Replay.Enable {
		return BaseConfig{}, fmt.Errorf("base.sim and base.replay cannot both be enabled")
	}

	// Simulator defaults (safe even if disabled).
	if cfg.Sim.TrackWidthM <= 0 {
		cfg.Sim.TrackWidthM = 0.3
	}
	if cfg.Sim.MaxSpeedMps <= 0 {
		cfg.Sim.MaxSpeedMps = 1.0
	}
	if cfg.Sim.MaxPWM <= 0 {
		cfg.Sim.MaxPWM = 255
	}
	if cfg.Sim.Interval <= 0 {
		cfg.Sim.Interval = 100 * time.Millisecond
	}
	if cfg.Sim.Enable && cfg.Sim.StartLatDeg == 0 && cfg.Sim.StartLonDeg == 0 {
		// (0,0) is the no-fix sentinel on the wire; refuse it as a start.
		return BaseConfig{}, fmt.Errorf("base.sim.start_lat_deg/start_lon_deg are required")
	}

	return cfg, nil
}

func LoadRover(path string) (RoverConfig, error) {
	var fc fileConfig
	if err := read(path, &fc); err != nil {
		return RoverConfig{}, err
	}
	cfg := fc.Rover

	if cfg.Radio.Device == "" {
		return RoverConfig{}, fmt.Errorf("rover.radio.device is required")
	}
	if cfg.Radio.Baud <= 0 {
		cfg.Radio.Baud = 57600
	}
	if cfg.GPS.Device == "" {
		return RoverConfig{}, fmt.Errorf("rover.gps.device is required")
	}
	if cfg.GPS.Baud <= 0 {
		cfg.GPS.Baud = 9600
	}

	if cfg.I2C.Bus == "" {
		cfg.I2C.Bus = "/dev/i2c-1"
	}
	if cfg.I2C.Addr == 0 {
		cfg.I2C.Addr = 0x68
	}

	if cfg.Motor.Left == (motor.Pins{}) || cfg.Motor.Right == (motor.Pins{}) {
		return RoverConfig{}, fmt.Errorf("rover.motor.left and rover.motor.right pins are required")
	}
	if cfg.Motor.MaxPWM <= 0 {
		cfg.Motor.MaxPWM = 255
	}
	if cfg.Motor.CommandTimeout <= 0 {
		cfg.Motor.CommandTimeout = 2 * time.Second
	}

	if cfg.TelemetryInterval <= 0 {
		cfg.TelemetryInterval = 200 * time.Millisecond
	}
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = 10 * time.Millisecond
	}

	return cfg, nil
}

func read(path string, fc *fileConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, fc); err != nil {
		return err
	}
	return nil
}
