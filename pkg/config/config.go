// Package config loads the robot's YAML configuration.  Every field has a
// default, so a missing file gives a working robot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/mikeymonster/pkg/arm"
	"github.com/tigerbot-team/mikeymonster/pkg/drive"
	"github.com/tigerbot-team/mikeymonster/pkg/motorboard"
)

const DefaultPath = "/cfg/mikeymonster.yaml"

type Config struct {
	Joystick  Joystick  `yaml:"joystick"`
	Power     Power     `yaml:"power"`
	Board     Board     `yaml:"board"`
	Arm       Arm       `yaml:"arm"`
	Sounds    Sounds    `yaml:"sounds"`
	Screen    Screen    `yaml:"screen"`
	Telemetry Telemetry `yaml:"telemetry"`
	Logging   Logging   `yaml:"logging"`
}

type Joystick struct {
	Device          string `yaml:"device"`
	LeftAxis        int    `yaml:"left_axis"`
	RightAxis       int    `yaml:"right_axis"`
	InvertLeftAxis  bool   `yaml:"invert_left_axis"`
	InvertRightAxis bool   `yaml:"invert_right_axis"`

	SlowButton int     `yaml:"slow_button"`
	SlowFactor float64 `yaml:"slow_factor"`

	LightButton  int `yaml:"light_button"`
	OpenGrip     int `yaml:"open_grip"`
	CloseGrip    int `yaml:"close_grip"`
	BaseACW      int `yaml:"base_acw"`
	BaseCW       int `yaml:"base_cw"`
	ShoulderUp   int `yaml:"shoulder_up"`
	ShoulderDown int `yaml:"shoulder_down"`
	ElbowUp      int `yaml:"elbow_up"`
	ElbowDown    int `yaml:"elbow_down"`
	WristUp      int `yaml:"wrist_up"`
	WristDown    int `yaml:"wrist_down"`
	StopArm      int `yaml:"stop_arm"`

	RetryInterval time.Duration `yaml:"retry_interval"`
}

type Power struct {
	VoltageIn  float64 `yaml:"voltage_in"`
	VoltageOut float64 `yaml:"voltage_out"`
}

type Board struct {
	Bus           string             `yaml:"bus"`
	Address       motorboard.Address `yaml:"address"`
	CommsFailsafe bool               `yaml:"comms_failsafe"`
	Keepalive     time.Duration      `yaml:"keepalive"`
}

type Arm struct {
	Enabled bool `yaml:"enabled"`
	// Optional allows running without the arm when it isn't plugged in.
	Optional bool `yaml:"optional"`
}

type Sounds struct {
	Startup       string `yaml:"startup"`
	JoystickFound string `yaml:"joystick_found"`
	EmergencyStop string `yaml:"emergency_stop"`
}

type Screen struct {
	Device string `yaml:"device"`
}

type Telemetry struct {
	URL      string        `yaml:"url"`
	Token    string        `yaml:"token"`
	Org      string        `yaml:"org"`
	Bucket   string        `yaml:"bucket"`
	Interval time.Duration `yaml:"interval"`
}

// Logging optionally copies the log to a size-rotated file.
type Logging struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func Default() Config {
	return Config{
		Joystick: Joystick{
			Device:        "/dev/input/js0",
			LeftAxis:      1,
			RightAxis:     3,
			SlowButton:    8,
			SlowFactor:    drive.DefaultSlowFactor,
			LightButton:   2,
			OpenGrip:      0,
			CloseGrip:     1,
			BaseACW:       7,
			BaseCW:        6,
			ShoulderUp:    15,
			ShoulderDown:  13,
			ElbowUp:       16,
			ElbowDown:     14,
			WristUp:       4,
			WristDown:     5,
			StopArm:       3,
			RetryInterval: 100 * time.Millisecond,
		},
		Power: Power{
			VoltageIn:  12.0,
			VoltageOut: 11.4,
		},
		Board: Board{
			Address:   0x15,
			Keepalive: 100 * time.Millisecond,
		},
		Arm: Arm{
			Enabled:  true,
			Optional: true,
		},
		Telemetry: Telemetry{
			Org:      "mikeymonster",
			Bucket:   "rover",
			Interval: 10 * time.Second,
		},
		Logging: Logging{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.  A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err == nil {
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if d := getenv("JOYSTICK_DEVICE"); d != "" {
		c.Joystick.Device = d
	}
	if b := getenv("I2C_BUS"); b != "" {
		c.Board.Bus = b
	}
	if v := getenv("IGNORE_MISSING_ARM"); v != "" {
		if ignore, err := strconv.ParseBool(v); err == nil {
			c.Arm.Optional = ignore
		}
	}
}

// Dump returns the effective configuration as YAML.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(&c)
}

// ConfigError is a configuration the robot can't run with.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func (c Config) Validate() error {
	if !(c.Power.VoltageIn > 0) {
		return &ConfigError{"power.voltage_in", fmt.Sprintf("%v must be positive", c.Power.VoltageIn)}
	}
	if !(c.Power.VoltageOut > 0) {
		return &ConfigError{"power.voltage_out", fmt.Sprintf("%v must be positive", c.Power.VoltageOut)}
	}
	if !(c.Joystick.SlowFactor > 0 && c.Joystick.SlowFactor <= 1) {
		return &ConfigError{"joystick.slow_factor", fmt.Sprintf("%v must be in (0, 1]", c.Joystick.SlowFactor)}
	}
	if c.Board.Address < 0x03 || c.Board.Address > 0x77 {
		return &ConfigError{"board.address", fmt.Sprintf("%v outside 0x03-0x77", c.Board.Address)}
	}
	if c.Joystick.RetryInterval <= 0 {
		return &ConfigError{"joystick.retry_interval", "must be positive"}
	}
	if c.Board.CommsFailsafe && c.Board.Keepalive <= 0 {
		return &ConfigError{"board.keepalive", "must be positive when comms_failsafe is on"}
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return &ConfigError{"logging.max_size_mb", "must be positive when logging to a file"}
	}
	if c.Joystick.LeftAxis < 0 || c.Joystick.RightAxis < 0 {
		return &ConfigError{"joystick axes", "must not be negative"}
	}

	seen := map[int]string{}
	for name, idx := range c.Joystick.Buttons() {
		if idx < 0 {
			return &ConfigError{"joystick." + name, "button index must not be negative"}
		}
		if other, ok := seen[idx]; ok {
			a, b := name, other
			if b < a {
				a, b = b, a
			}
			return &ConfigError{"joystick." + a, fmt.Sprintf("button %d is also assigned to %s", idx, b)}
		}
		seen[idx] = name
	}
	return nil
}

// Buttons maps each configured button name to its index.
func (j Joystick) Buttons() map[string]int {
	return map[string]int{
		"slow_button":   j.SlowButton,
		"light_button":  j.LightButton,
		"open_grip":     j.OpenGrip,
		"close_grip":    j.CloseGrip,
		"base_acw":      j.BaseACW,
		"base_cw":       j.BaseCW,
		"shoulder_up":   j.ShoulderUp,
		"shoulder_down": j.ShoulderDown,
		"elbow_up":      j.ElbowUp,
		"elbow_down":    j.ElbowDown,
		"wrist_up":      j.WristUp,
		"wrist_down":    j.WristDown,
		"stop_arm":      j.StopArm,
	}
}

// ArmButton pairs a button with the arm command it sends.
type ArmButton struct {
	Button  int
	Command arm.Command
}

// ArmButtons lists the arm buttons in the order they are checked; only the
// first held button takes effect.
func (j Joystick) ArmButtons() []ArmButton {
	return []ArmButton{
		{j.LightButton, arm.LightToggle},
		{j.OpenGrip, arm.GripOpen},
		{j.CloseGrip, arm.GripClose},
		{j.BaseACW, arm.BaseACW},
		{j.BaseCW, arm.BaseCW},
		{j.ShoulderUp, arm.ShoulderUp},
		{j.ShoulderDown, arm.ShoulderDown},
		{j.ElbowUp, arm.ElbowUp},
		{j.ElbowDown, arm.ElbowDown},
		{j.WristUp, arm.WristUp},
		{j.WristDown, arm.WristDown},
		{j.StopArm, arm.Stop},
	}
}
