// Package config loads the transmitter service configuration from a YAML
// file. Fields omitted from the file keep their defaults, so a partial
// config is safe.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/fskstream/internal/radio"
	"github.com/banshee-data/fskstream/internal/serialio"
)

type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Radio  RadioConfig  `yaml:"radio"`
	HTTP   HTTPConfig   `yaml:"http"`
	DB     DBConfig     `yaml:"db"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Log    LogConfig    `yaml:"log"`
}

// SerialConfig names the console port and its line parameters.
type SerialConfig struct {
	Port    string               `yaml:"port"`
	Options serialio.PortOptions `yaml:"options"`
}

// RadioConfig holds the modem parameters and the hardware bus names used to
// reach the SX127x and the status OLED. Bus names are periph.io registry
// names ("" picks the platform default).
type RadioConfig struct {
	FrequencyMHz   float64 `yaml:"frequency_mhz"`
	BitRateKbps    float64 `yaml:"bit_rate_kbps"`
	DeviationKHz   float64 `yaml:"deviation_khz"`
	RxBandwidthKHz float64 `yaml:"rx_bandwidth_khz"`
	PowerDBm       int     `yaml:"power_dbm"`
	PreambleBits   int     `yaml:"preamble_bits"`
	CRC            bool    `yaml:"crc"`

	SPIPort string `yaml:"spi_port"`
	DIO1Pin string `yaml:"dio1_pin"`
	I2CBus  string `yaml:"i2c_bus"`
	Display bool   `yaml:"display"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig configures the optional event publisher. An empty broker URL
// disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id"`
}

type LogConfig struct {
	// File is a path for rotated log output. Empty logs to stderr only.
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	fsk := radio.DefaultFSKConfig()
	return &Config{
		Serial: SerialConfig{Port: "/dev/ttyACM0"},
		Radio: RadioConfig{
			FrequencyMHz:   fsk.FrequencyMHz,
			BitRateKbps:    fsk.BitRateKbps,
			DeviationKHz:   fsk.DeviationKHz,
			RxBandwidthKHz: fsk.RxBandwidthKHz,
			PowerDBm:       fsk.PowerDBm,
			PreambleBits:   fsk.PreambleBits,
			CRC:            fsk.CRC,
			DIO1Pin:        "GPIO24",
			Display:        false,
		},
		HTTP: HTTPConfig{Listen: ":8080"},
		DB:   DBConfig{Path: "fskstream.db"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must be set")
	}
	if _, err := c.Serial.Options.Normalize(); err != nil {
		return fmt.Errorf("serial.options: %w", err)
	}
	if c.Radio.FrequencyMHz < 137 || c.Radio.FrequencyMHz > 1020 {
		return fmt.Errorf("radio.frequency_mhz %.4f is outside the SX127x range [137, 1020]", c.Radio.FrequencyMHz)
	}
	if c.Radio.PowerDBm < 2 || c.Radio.PowerDBm > 20 {
		return fmt.Errorf("radio.power_dbm %d is outside the PA_BOOST range [2, 20]", c.Radio.PowerDBm)
	}
	if c.Radio.BitRateKbps <= 0 {
		return fmt.Errorf("radio.bit_rate_kbps must be positive, got %g", c.Radio.BitRateKbps)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must be set")
	}
	return nil
}

// FSK converts the radio section into the modem bring-up parameters.
func (c *Config) FSK() radio.FSKConfig {
	return radio.FSKConfig{
		FrequencyMHz:   c.Radio.FrequencyMHz,
		BitRateKbps:    c.Radio.BitRateKbps,
		DeviationKHz:   c.Radio.DeviationKHz,
		RxBandwidthKHz: c.Radio.RxBandwidthKHz,
		PowerDBm:       c.Radio.PowerDBm,
		PreambleBits:   c.Radio.PreambleBits,
		CRC:            c.Radio.CRC,
	}
}
