package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Radio   Radio         `yaml:"radio"`
	Model   *Model        `yaml:"model"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// RuntimeConfig contains the cadence of the periodic tasks.
type RuntimeConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"` // mixer cycle
	HistoryLength  int           `yaml:"history_length"`  // channel frames kept for the monitor
	AverageSamples int           `yaml:"average_samples"` // ADC averaging window, 0 disables
}

// Radio holds the transmitter wide settings shared by all models.
type Radio struct {
	ThrottleReversed  bool               `yaml:"throttle_reversed"`
	Calibration       []StickCalibration `yaml:"calibration"` // sticks then pots
	Trainer           TrainerConfig      `yaml:"trainer"`
	InactivityMinutes uint8              `yaml:"inactivity_minutes"` // 0 disables the alarm
}

// StickCalibration maps a raw 12-bit ADC reading to +/-RESX.
type StickCalibration struct {
	Mid     int `yaml:"mid"`
	SpanNeg int `yaml:"span_neg"`
	SpanPos int `yaml:"span_pos"`
}

// TrainerConfig configures how captured trainer channels blend into the sticks.
type TrainerConfig struct {
	Mix   [4]TrainerMix           `yaml:"mix"`
	Calib [NumTrainerInputs]int16 `yaml:"calib"` // captured center values
}

// TrainerMix blends one captured channel into one stick.
type TrainerMix struct {
	Mode   TrainerMode `yaml:"mode"`
	Source int         `yaml:"source"` // captured channel, 0 based
	Weight int8        `yaml:"weight"` // percent
	Switch int         `yaml:"switch"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	SampleRate time.Duration `yaml:"sample_rate"` // stick sample period
	Period     time.Duration `yaml:"period"`      // simulated stick sweep period
	Noise      int           `yaml:"noise"`       // ADC counts
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Runtime: RuntimeConfig{
			SampleInterval: 20 * time.Millisecond,
			HistoryLength:  500,
		},
		Radio: DefaultRadio(),
		Model: DefaultModel(),
		Mock: MockConfig{
			SampleRate: 20 * time.Millisecond,
			Period:     4 * time.Second,
			Noise:      2,
		},
	}
}

// DefaultRadio returns centered 12-bit calibration and straight trainer mixes.
func DefaultRadio() Radio {
	r := Radio{
		Calibration: make([]StickCalibration, 7),
	}
	for i := range r.Calibration {
		r.Calibration[i] = StickCalibration{Mid: 2048, SpanNeg: 1800, SpanPos: 1800}
	}
	for i := range r.Trainer.Mix {
		r.Trainer.Mix[i] = TrainerMix{Mode: TrainerAdd, Source: i, Weight: 100}
	}
	return r
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Runtime.SampleInterval == 0 {
		c.Runtime.SampleInterval = def.Runtime.SampleInterval
	}
	if c.Runtime.HistoryLength == 0 {
		c.Runtime.HistoryLength = def.Runtime.HistoryLength
	}

	if len(c.Radio.Calibration) == 0 {
		c.Radio.Calibration = def.Radio.Calibration
	}

	if c.Model == nil {
		c.Model = def.Model
	}
	c.Model.ensureDefaults()

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
}

// ensureDefaults fills in the timing parameters and per channel tables a
// model file may leave out.
func (m *Model) ensureDefaults() {
	if m.PPM.Channels == 0 {
		m.PPM.Channels = NumPhaseChannels
	}
	if m.PPM.Channels2 == 0 {
		m.PPM.Channels2 = NumPhaseChannels
	}
	if m.PPM.FrameLength == 0 {
		m.PPM.FrameLength = 22500
	}
	for len(m.Limits) < NumChannels {
		m.Limits = append(m.Limits, DefaultLimit())
	}
	for len(m.Safety) < NumChannels {
		m.Safety = append(m.Safety, SafetySwitch{})
	}
}
