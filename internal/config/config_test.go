package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fskstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") differs from defaults (-want +got):\n%s", diff)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB3
radio:
  frequency_mhz: 434.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Port)
	assert.Equal(t, 434.0, cfg.Radio.FrequencyMHz)

	// Untouched sections keep their defaults.
	assert.Equal(t, 4.8, cfg.Radio.BitRateKbps)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
	assert.Equal(t, "fskstream.db", cfg.DB.Path)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyACM1
  options:
    baud_rate: 57600
    parity: even
radio:
  frequency_mhz: 868.1
  power_dbm: 14
  spi_port: SPI0.0
  dio1_pin: GPIO25
  display: true
http:
  listen: ":9090"
db:
  path: /var/lib/fskstream/txlog.db
mqtt:
  broker: tcp://localhost:1883
  topic_prefix: bench/tx
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 57600, cfg.Serial.Options.BaudRate)
	assert.Equal(t, "SPI0.0", cfg.Radio.SPIPort)
	assert.True(t, cfg.Radio.Display)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)

	fsk := cfg.FSK()
	assert.Equal(t, 868.1, fsk.FrequencyMHz)
	assert.Equal(t, 14, fsk.PowerDBm)
}

func TestLoadRejectsNonYAMLExtension(t *testing.T) {
	_, err := Load("config.json")
	assert.ErrorContains(t, err, "yaml extension")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty serial port", func(c *Config) { c.Serial.Port = "" }, "serial.port"},
		{"bad parity", func(c *Config) { c.Serial.Options.Parity = "Q" }, "parity"},
		{"frequency too low", func(c *Config) { c.Radio.FrequencyMHz = 100 }, "frequency_mhz"},
		{"frequency too high", func(c *Config) { c.Radio.FrequencyMHz = 2400 }, "frequency_mhz"},
		{"power too low", func(c *Config) { c.Radio.PowerDBm = 0 }, "power_dbm"},
		{"power too high", func(c *Config) { c.Radio.PowerDBm = 30 }, "power_dbm"},
		{"zero bit rate", func(c *Config) { c.Radio.BitRateKbps = 0 }, "bit_rate_kbps"},
		{"empty db path", func(c *Config) { c.DB.Path = "" }, "db.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
