// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Defaults applied before validation when a key is absent.
const (
	DefaultIMUAddr          = 0x68
	DefaultDLPFConfig       = 4 // 20 Hz
	DefaultSampleRateDiv    = 9 // 1 kHz / (1 + 9) = 100 Hz
	DefaultRetryAttempts    = 50
	DefaultCalWarmupSamples = 10
	DefaultCalSamples       = 100
	DefaultCalReadDelayMS   = 1
	DefaultInitAttempts     = 3
	DefaultDisplayInterval  = 200
	DefaultWebServerPort    = 8080
)

// Config holds all application configuration values.
type Config struct {
	// Bus
	I2CBus           string
	IMUI2CAddr       uint16
	BusRetryAttempts int

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// IMU Sample Rate Configuration
	IMUDLPFConfig    byte // Digital Low Pass Filter configuration (0-6)
	IMUSampleRateDiv byte // output rate = 1 kHz / (1 + div) when the DLPF is on

	// Calibration
	CalWarmupSamples int
	CalSamples       int
	CalReadDelayMS   int

	// Bring-up
	InitAttempts int

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicOrientation string
	TopicCalibration string
	TopicIMURaw      string

	// Timing
	IMUSampleInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds

	// Servers
	WebServerPort int
	MetricsPort   int // 0 disables /metrics

	set map[string]bool
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get.
//   - configOnce: InitGlobal runs Load once per process.
//   - configMu: write lock for initialization, read lock for Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml hold a flat mapping of the same keys;
// anything else is parsed as KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return ParseYAML(file)
	default:
		return Parse(file)
	}
}

// Parse reads KEY=VALUE lines. Empty lines and lines starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return cfg.finish()
}

// ParseYAML reads a flat YAML mapping whose keys are the KEY=VALUE key names.
func ParseYAML(r io.Reader) (*Config, error) {
	raw := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error decoding yaml config: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := &Config{}
	for _, k := range keys {
		if err := cfg.setValue(k, strings.TrimSpace(raw[k])); err != nil {
			return nil, fmt.Errorf("config key %s: %w", k, err)
		}
	}
	return cfg.finish()
}

func (c *Config) finish() (*Config, error) {
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRange(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	if c.set == nil {
		c.set = map[string]bool{}
	}

	switch key {
	// Bus
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, err)
		}
		if addr > 0x7F {
			return fmt.Errorf("IMU_I2C_ADDR must be a 7-bit address, got %#x", addr)
		}
		c.IMUI2CAddr = uint16(addr)
	case "BUS_RETRY_ATTEMPTS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BUS_RETRY_ATTEMPTS %q: %w", value, err)
		}
		c.BusRetryAttempts = v

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// IMU Sample Rate Configuration
	case "IMU_DLPF_CFG":
		val, err := parseRange(key, value, 0, 7)
		if err != nil {
			return err
		}
		c.IMUDLPFConfig = byte(val)
	case "IMU_SMPLRT_DIV":
		val, err := parseRange(key, value, 0, 255)
		if err != nil {
			return err
		}
		c.IMUSampleRateDiv = byte(val)

	// Calibration
	case "CAL_WARMUP_SAMPLES":
		val, err := parseRange(key, value, 0, 10000)
		if err != nil {
			return err
		}
		c.CalWarmupSamples = val
	case "CAL_SAMPLES":
		val, err := parseRange(key, value, 1, 100000)
		if err != nil {
			return err
		}
		c.CalSamples = val
	case "CAL_READ_DELAY_MS":
		val, err := parseRange(key, value, 0, 1000)
		if err != nil {
			return err
		}
		c.CalReadDelayMS = val

	case "INIT_ATTEMPTS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid INIT_ATTEMPTS %q: %w", value, err)
		}
		c.InitAttempts = v

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_CALIBRATION":
		c.TopicCalibration = value
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.IMUSampleInterval = interval
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Servers
	case "WEB_SERVER_PORT":
		port, err := parseRange(key, value, 1, 65535)
		if err != nil {
			return err
		}
		c.WebServerPort = port
	case "METRICS_PORT":
		port, err := parseRange(key, value, 0, 65535)
		if err != nil {
			return err
		}
		c.MetricsPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	c.set[key] = true
	return nil
}

// applyDefaults fills keys the file left out.
func (c *Config) applyDefaults() {
	if !c.set["IMU_I2C_ADDR"] {
		c.IMUI2CAddr = DefaultIMUAddr
	}
	if !c.set["IMU_DLPF_CFG"] {
		c.IMUDLPFConfig = DefaultDLPFConfig
	}
	if !c.set["IMU_SMPLRT_DIV"] {
		c.IMUSampleRateDiv = DefaultSampleRateDiv
	}
	if !c.set["BUS_RETRY_ATTEMPTS"] {
		c.BusRetryAttempts = DefaultRetryAttempts
	}
	if !c.set["CAL_WARMUP_SAMPLES"] {
		c.CalWarmupSamples = DefaultCalWarmupSamples
	}
	if !c.set["CAL_SAMPLES"] {
		c.CalSamples = DefaultCalSamples
	}
	if !c.set["CAL_READ_DELAY_MS"] {
		c.CalReadDelayMS = DefaultCalReadDelayMS
	}
	if !c.set["INIT_ATTEMPTS"] {
		c.InitAttempts = DefaultInitAttempts
	}
	if !c.set["DISPLAY_UPDATE_INTERVAL"] {
		c.DisplayUpdateInterval = DefaultDisplayInterval
	}
	if !c.set["WEB_SERVER_PORT"] {
		c.WebServerPort = DefaultWebServerPort
	}
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.BusRetryAttempts <= 0 {
		return fmt.Errorf("BUS_RETRY_ATTEMPTS must be positive, got %d", c.BusRetryAttempts)
	}
	if c.InitAttempts <= 0 {
		return fmt.Errorf("INIT_ATTEMPTS must be positive, got %d", c.InitAttempts)
	}
	if c.IMUDLPFConfig == 7 {
		return fmt.Errorf("IMU_DLPF_CFG 7 is reserved")
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL is required")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL is required")
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive when DISPLAY_ENABLED")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
