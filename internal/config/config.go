package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string        `json:"log_level" yaml:"log_level"`
	Dataset  DatasetConfig `json:"dataset" yaml:"dataset"`
	Tasks    TasksConfig   `json:"tasks" yaml:"tasks"`
	Letters  LettersConfig `json:"letters" yaml:"letters"`
	API      APIConfig     `json:"api" yaml:"api"`
	Signup   SignupConfig  `json:"signup" yaml:"signup"`
	Mail     MailConfig    `json:"mail" yaml:"mail"`
	Storage  StorageConfig `json:"storage" yaml:"storage"`
	Publish  PublishConfig `json:"publish" yaml:"publish"`
	Metrics  MetricsConfig `json:"metrics" yaml:"metrics"`
}

// DatasetConfig points at the two JSON documents. Either may be an http(s)
// URL or a local path.
type DatasetConfig struct {
	SystemsURL      string        `json:"systems_url" yaml:"systems_url"`
	ContaminantsURL string        `json:"contaminants_url" yaml:"contaminants_url"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	RefreshInterval time.Duration `json:"refresh_interval" yaml:"refresh_interval"`
}

type TasksConfig struct {
	FallbackDueDate string `json:"fallback_due_date" yaml:"fallback_due_date"`
	DueSoonDays     int    `json:"due_soon_days" yaml:"due_soon_days"`
}

type LettersConfig struct {
	DefaultRecipients int `json:"default_recipients" yaml:"default_recipients"`
	AnnualOverdueDays int `json:"annual_overdue_days" yaml:"annual_overdue_days"`
	SessionLimit      int `json:"session_limit" yaml:"session_limit"`
}

type APIConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Addr       string        `json:"addr" yaml:"addr"`
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`
}

type SignupConfig struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

type MailConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	URLs    []string      `json:"urls" yaml:"urls"`
	From    string        `json:"from" yaml:"from"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type PublishConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type MetricsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

const DefaultFallbackDueDate = "2024-12-31"

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Dataset: DatasetConfig{
			SystemsURL:      "data/dashboard_data.json",
			ContaminantsURL: "data/contaminant_info.json",
			Timeout:         15 * time.Second,
			RefreshInterval: 10 * time.Minute,
		},
		Tasks: TasksConfig{
			FallbackDueDate: DefaultFallbackDueDate,
			DueSoonDays:     7,
		},
		Letters: LettersConfig{
			DefaultRecipients: 1000,
			AnnualOverdueDays: 7,
			SessionLimit:      1000,
		},
		API:     APIConfig{Enabled: true, Addr: ":3001", SessionTTL: 2 * time.Hour},
		Signup:  SignupConfig{Endpoint: "http://localhost:3001/api/send-email", Timeout: 10 * time.Second, Cooldown: time.Minute},
		Mail:    MailConfig{Enabled: false, From: "noreply@water-safety-dashboard.com", Timeout: 10 * time.Second},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:watersafe.db?_pragma=busy_timeout(5000)"},
		Publish: PublishConfig{Enabled: false, Topic: "watersafe.letters"},
		Metrics: MetricsConfig{StoreLimit: 5000},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Tasks.FallbackDueDate == "" {
		cfg.Tasks.FallbackDueDate = DefaultFallbackDueDate
	}
	if cfg.Tasks.DueSoonDays <= 0 {
		cfg.Tasks.DueSoonDays = 7
	}
	if cfg.Letters.DefaultRecipients <= 0 {
		cfg.Letters.DefaultRecipients = 1000
	}
	if cfg.Letters.AnnualOverdueDays <= 0 {
		cfg.Letters.AnnualOverdueDays = 7
	}
	if cfg.Letters.SessionLimit <= 0 {
		cfg.Letters.SessionLimit = 1000
	}
	if cfg.Dataset.Timeout <= 0 {
		cfg.Dataset.Timeout = 15 * time.Second
	}
	if cfg.Dataset.RefreshInterval <= 0 {
		cfg.Dataset.RefreshInterval = 10 * time.Minute
	}
	if cfg.API.SessionTTL <= 0 {
		cfg.API.SessionTTL = 2 * time.Hour
	}
	if cfg.Signup.Timeout <= 0 {
		cfg.Signup.Timeout = 10 * time.Second
	}
	if cfg.Mail.Timeout <= 0 {
		cfg.Mail.Timeout = 10 * time.Second
	}
	if cfg.Metrics.StoreLimit <= 0 {
		cfg.Metrics.StoreLimit = 5000
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Dataset.SystemsURL == "" {
		return errors.New("dataset.systems_url required")
	}
	if _, err := time.Parse("2006-01-02", cfg.Tasks.FallbackDueDate); err != nil {
		return fmt.Errorf("tasks.fallback_due_date must be YYYY-MM-DD: %w", err)
	}
	if cfg.Mail.Enabled && len(cfg.Mail.URLs) == 0 {
		return errors.New("mail.urls required when mail.enabled is true")
	}
	if cfg.Storage.Enabled && cfg.Storage.Driver == "" {
		return errors.New("storage.driver required when storage.enabled is true")
	}
	if cfg.Publish.Enabled {
		if len(cfg.Publish.Brokers) == 0 || cfg.Publish.Topic == "" {
			return errors.New("publish requires brokers and topic")
		}
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager wraps an in-memory config. Reload and Watch are no-ops
// because there is no backing file.
func NewStaticManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
