package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/solarloop/internal/export"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

const envPrefix = "SOLARLOOP_"

type Config struct {
	DeviceID    string            `koanf:"device_id"`
	Collector   CollectorConfig   `koanf:"collector"`
	Pump        PumpConfig        `koanf:"pump"`
	Tank        TankConfig        `koanf:"tank"`
	Simulation  SimulationConfig  `koanf:"simulation"`
	Playback    PlaybackConfig    `koanf:"playback"`
	Output      OutputConfig      `koanf:"output"`
	Cache       string            `koanf:"cache"`
	Controllers ControllersConfig `koanf:"controllers"`
}

type CollectorConfig struct {
	Efficiency float64 `koanf:"efficiency"`
	Area       float64 `koanf:"area"`
	Derating   string  `koanf:"derating"` // "linear" | "none"
}

type PumpConfig struct {
	FlowRate float64 `koanf:"flow_rate"` // L/min
}

type TankConfig struct {
	Volume            float64 `koanf:"volume"`
	ThermalEfficiency float64 `koanf:"thermal_efficiency"`
}

type SimulationConfig struct {
	InitialTemperature float64 `koanf:"initial_temperature"`
	PeakSunlight       float64 `koanf:"peak_sunlight"`
	Duration           int     `koanf:"duration"` // minutes
}

type PlaybackConfig struct {
	Interval time.Duration `koanf:"interval"`
	Loop     bool          `koanf:"loop"`
}

type OutputConfig struct {
	Path   string `koanf:"path"`
	Format string `koanf:"format"` // "csv" | "json" | "yaml"
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt"`
	Modbus ModbusConfig `koanf:"modbus"`
	WS     WSConfig     `koanf:"ws"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

type WSConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// Default is the reference day: a 2 m² panel feeding a 150 L tank.
func Default() Config {
	return Config{
		DeviceID: "default",
		Collector: CollectorConfig{
			Efficiency: 0.7,
			Area:       2,
			Derating:   "linear",
		},
		Pump: PumpConfig{FlowRate: 5},
		Tank: TankConfig{Volume: 150, ThermalEfficiency: 0.9},
		Simulation: SimulationConfig{
			InitialTemperature: 20,
			PeakSunlight:       800,
			Duration:           solarloop.MinutesPerDay,
		},
		Playback: PlaybackConfig{Interval: time.Second},
		Output:   OutputConfig{Format: "csv"},
		Controllers: ControllersConfig{
			HTTP:   HTTPConfig{Enabled: true, Addr: ":8080"},
			MQTT:   MQTTConfig{PublishInterval: time.Second},
			Modbus: ModbusConfig{UnitID: 1},
			WS:     WSConfig{Enabled: true, Interval: time.Second},
		},
	}
}

// LoadConfig layers defaults, the config file and SOLARLOOP_* environment
// variables, in that order. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = "default"
	}
	if cfg.Collector.Derating == "" {
		cfg.Collector.Derating = "linear"
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if cfg.Controllers.MQTT.PublishInterval == 0 {
		cfg.Controllers.MQTT.PublishInterval = time.Second
	}
	if cfg.Controllers.Modbus.UnitID == 0 {
		cfg.Controllers.Modbus.UnitID = 1
	}
	if cfg.Playback.Interval <= 0 {
		cfg.Playback.Interval = time.Second
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
}

// envKeyTransform maps an unprefixed environment key onto a koanf path.
// Section names may themselves hold underscores, so only the known sections
// are split off; the field part keeps its underscores.
func envKeyTransform(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return ""
	}

	if strings.HasPrefix(k, "controllers_") {
		parts := strings.SplitN(k, "_", 3)
		if len(parts) < 3 {
			return k
		}
		return "controllers." + parts[1] + "." + parts[2]
	}

	for _, section := range []string{"collector", "pump", "tank", "simulation", "playback", "output"} {
		if rest, ok := strings.CutPrefix(k, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return k
}

// Params builds the immutable parameter set for one simulation run.
func (c Config) Params() (solarloop.Params, error) {
	derating, err := solarloop.ParseDerating(c.Collector.Derating)
	if err != nil {
		return solarloop.Params{}, err
	}
	if err := solarloop.ValidateDuration(c.Simulation.Duration); err != nil {
		return solarloop.Params{}, fmt.Errorf("simulation.duration: %w", err)
	}
	return solarloop.Params{
		Efficiency:         c.Collector.Efficiency,
		Area:               c.Collector.Area,
		FlowRate:           c.Pump.FlowRate,
		Volume:             c.Tank.Volume,
		ThermalEfficiency:  c.Tank.ThermalEfficiency,
		InitialTemperature: c.Simulation.InitialTemperature,
		PeakSunlight:       c.Simulation.PeakSunlight,
		Duration:           c.Simulation.Duration,
		Derating:           derating,
	}, nil
}

func (c Config) OutputFormat() (export.Format, error) {
	return export.ParseFormat(c.Output.Format)
}

func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		// listen on all interfaces on that port
		cfg.Controllers.HTTP.Addr = ":" + v
	}
}
