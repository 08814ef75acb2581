package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/medisetu/dispatch/core/match"
	"github.com/medisetu/dispatch/core/metrics"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/infra/notify"
)

type Config struct {
	Match    match.Config                        `json:"match"`
	Metrics  metrics.Config                      `json:"metrics"`
	SMS      notify.SMSConfig                    `json:"sms"`
	MQTT     notify.MQTTConfig                   `json:"mqtt"`
	HTTP     HTTPConfig                          `json:"http"`
	Storage  StorageConfig                       `json:"storage"`
	Engine   EngineConfig                        `json:"engine"`
	Audit    AuditConfig                         `json:"audit"`
	Fleet    []FleetVehicle                      `json:"fleet"`
	Contacts map[string][]model.EmergencyContact `json:"contacts"`
	PinCodes map[string]model.Location           `json:"pin_codes"`
}

// HTTPConfig configures the portal-facing API server.
type HTTPConfig struct {
	Port int `json:"port"`
	// AuditToken guards the audit endpoints. Empty disables the guard.
	AuditToken string `json:"audit_token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
}

// StorageConfig locates the durable offline queue.
type StorageConfig struct {
	QueuePath string `json:"queue_path"`
}

func (c *StorageConfig) SetDefaults() {
	if c.QueuePath == "" {
		c.QueuePath = "queue.db"
	}
}

// EngineConfig holds engine-level timing knobs.
type EngineConfig struct {
	// SyncIntervalSeconds is the period of the background offline drain.
	SyncIntervalSeconds int `json:"sync_interval_seconds"`
}

func (c *EngineConfig) SetDefaults() {
	if c.SyncIntervalSeconds == 0 {
		c.SyncIntervalSeconds = 30
	}
}

// AuditConfig selects the audit store backend.
type AuditConfig struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "audit.log"
	}
}

func (c AuditConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
		return nil
	default:
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
}

// FleetVehicle describes one configured vehicle.
type FleetVehicle struct {
	Type         string         `json:"type"`
	ID           string         `json:"id"`
	DriverName   string         `json:"driver_name"`
	Phone        string         `json:"phone"`
	LicensePlate string         `json:"license_plate"`
	Equipment    []string       `json:"equipment"`
	Capacity     int            `json:"capacity"`
	Location     model.Location `json:"location"`
}

// ToVehicle converts the config entry into a domain vehicle.
func (f FleetVehicle) ToVehicle() (model.Vehicle, error) {
	switch f.Type {
	case "ambulance":
		return model.NewAmbulance(f.ID, f.DriverName, f.Phone, f.LicensePlate, f.Equipment, f.Location), nil
	case "local_transport":
		return model.NewLocalTransport(f.ID, f.DriverName, f.Phone, f.Capacity, f.Location), nil
	default:
		return model.Vehicle{}, fmt.Errorf("vehicle %s: unknown type %q", f.ID, f.Type)
	}
}

// Load reads the configuration file at path and applies ED_* environment
// overrides. YAML and JSON are supported, selected by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("ED_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ed_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset sections with their documented defaults.
func (c *Config) SetDefaults() {
	c.Match.SetDefaults()
	c.Metrics.SetDefaults()
	c.SMS.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Storage.SetDefaults()
	c.Engine.SetDefaults()
	c.Audit.SetDefaults()
}

// Validate checks every section and the fleet entries.
func (c Config) Validate() error {
	if err := c.Match.Validate(); err != nil {
		return err
	}
	if err := c.Audit.Validate(); err != nil {
		return err
	}
	for _, f := range c.Fleet {
		v, err := f.ToVehicle()
		if err != nil {
			return err
		}
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
