package tenderwatch

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tenderwatch configuration.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	DBPath     string         `yaml:"db_path"`
	ResultsDir string         `yaml:"results_dir"`
	Fetcher    FetcherConfig  `yaml:"fetcher"`
	Schedule   ScheduleConfig `yaml:"schedule"`
}

// FetcherConfig controls the browser-backed fetcher.
type FetcherConfig struct {
	// RemoteURL attaches to an already-running Chrome instead of launching one.
	RemoteURL string `yaml:"remote_url"`
	// Headful runs the browser visibly, for debugging the form flow.
	Headful     bool          `yaml:"headful"`
	NavTimeout  time.Duration `yaml:"nav_timeout"`
	ListingWait time.Duration `yaml:"listing_wait"`
	// DetailPause is the politeness delay between detail-page fetches.
	DetailPause time.Duration `yaml:"detail_pause"`
}

// ScheduleConfig sets when schedule jobs fire. FireWeekday is a Go weekday
// number (0 Sunday .. 6 Saturday) and only applies to weekly jobs. Fields
// are pointers so 0 (midnight, Sunday) stays distinguishable from absent;
// absent fields fall back to 9:00 Monday inside the scheduler.
type ScheduleConfig struct {
	FireHour    *int          `yaml:"fire_hour"`
	FireMinute  *int          `yaml:"fire_minute"`
	FireWeekday *time.Weekday `yaml:"fire_weekday"`
}

func (c *Config) defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":3000"
	}
	if c.DBPath == "" {
		c.DBPath = "tenderwatch.db"
	}
	if c.ResultsDir == "" {
		c.ResultsDir = "search_results"
	}
	if c.Fetcher.DetailPause <= 0 {
		c.Fetcher.DetailPause = 500 * time.Millisecond
	}
	// Fetcher timeouts and schedule fire times default inside their packages.
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
