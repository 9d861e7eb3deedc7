package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/fairview/review-cycle-service/internal/domain"
)

type Config struct {
	Env      string   `yml:"env" default:"local"`
	Postgres Postgres `yml:"postgres"`
	Server   Server   `yml:"server" env-required:"true"`
	SMTP     SMTP     `yml:"smtp"`
	Storage  Storage  `yml:"storage"`
	KMS      KMS      `yml:"kms"`
	Cycle    Cycle    `yml:"cycle"`
}

type Postgres struct {
	Username        string        `env:"POSTGRES_USER" env-required:"true"`
	Password        string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Host            string        `yml:"host" env-required:"true"`
	Port            string        `env:"POSTGRES_PORT" env-required:"true"`
	Database        string        `env:"POSTGRES_DB" env-required:"true"`
	MaxOpenConns    int           `yml:"max_open_conns" default:"50"`
	MaxIdleConns    int           `yml:"max_idle_conns" default:"10"`
	ConnMaxLifetime time.Duration `yml:"conn_max_lifetime" default:"5m"`
	ConnMaxIdleTime time.Duration `yml:"conn_max_idle_time" default:"1m"`
}

type Server struct {
	Host    string        `yml:"host" default:"localhost"`
	Port    string        `yml:"port" default:"8080"`
	Timeout time.Duration `yml:"timeout" default:"5s"`
}

type SMTP struct {
	Host     string `yml:"host" env-required:"true"`
	Port     int    `yml:"port" default:"587"`
	Username string `env:"SMTP_USER" env-required:"true"`
	Password string `env:"SMTP_PASSWORD" env-required:"true"`
	From     string `yml:"from" env-required:"true"`
}

type Storage struct {
	Endpoint  string `yml:"endpoint" env-required:"true"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" env-required:"true"`
	SecretKey string `env:"STORAGE_SECRET_KEY" env-required:"true"`
	Bucket    string `yml:"bucket" env-required:"true"`
	UseSSL    bool   `yml:"use_ssl" default:"true"`
}

type KMS struct {
	BaseURL string        `yml:"base_url"`
	Timeout time.Duration `yml:"timeout" default:"10s"`
}

// Cycle holds the review-cycle business settings. Offsets are cumulative
// workday counts between consecutive milestones.
type Cycle struct {
	// Deployed selects the wall clock as the run date. When false,
	// TestToday is required and used instead.
	Deployed  bool   `yml:"deployed" default:"false"`
	TestToday string `yml:"test_today"`

	CycleOffsets      []int `yml:"cycle_offsets"`
	ProjectEndOffsets []int `yml:"project_end_offsets"`
	MinOverlapDays    int   `yml:"min_overlap_days" default:"30"`

	// ManualFlavor overrides the season-derived drop-dead flavor when
	// set. Must be "formal" or "informal".
	ManualFlavor string `yml:"manual_flavor"`

	AdminEmails          []string `yml:"admin_emails"`
	StrictCC             []string `yml:"strict_cc"`
	AlwaysAttendeeNames  []string `yml:"always_attendee_names"`
	ExcludedNames        []string `yml:"excluded_names"`
	SchedulerName        string   `yml:"scheduler_name"`
	SchedulerEmail       string   `yml:"scheduler_email"`
	WriteAccessEmail     string   `yml:"write_access_email"`
	EmployeesFolderID    string   `yml:"employees_folder_id"`
	BackupFolderID       string   `yml:"backup_folder_id"`
	StaffingSheetURL     string   `yml:"staffing_sheet_url"`
	FinalRemindersSince  string   `yml:"final_reminders_since"`
	FormBaseURL          string   `yml:"form_base_url"`
	EndDateBaseURL       string   `yml:"end_date_base_url"`
}

// RunDate returns the resolved "today" for this run: the wall clock when
// deployed, otherwise the configured test date. Always a civil date at
// UTC midnight.
func (c *Cycle) RunDate() (time.Time, error) {
	if c.Deployed {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	if c.TestToday == "" {
		return time.Time{}, errors.New("test_today is required when not deployed")
	}

	d, err := time.Parse("2006-01-02", c.TestToday)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse test_today: %w", err)
	}

	return d, nil
}

// FinalRemindersCutoff parses the final-reminders creation cutoff date.
func (c *Cycle) FinalRemindersCutoff() (time.Time, error) {
	if c.FinalRemindersSince == "" {
		return time.Time{}, errors.New("final_reminders_since is not set")
	}

	d, err := time.Parse("2006-01-02", c.FinalRemindersSince)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse final_reminders_since: %w", err)
	}

	return d, nil
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Cycle.CycleOffsets) != 6 {
		return fmt.Errorf("cycle_offsets must have 6 entries, got %d", len(c.Cycle.CycleOffsets))
	}

	if len(c.Cycle.ProjectEndOffsets) != 5 {
		return fmt.Errorf("project_end_offsets must have 5 entries, got %d", len(c.Cycle.ProjectEndOffsets))
	}

	if _, err := c.Cycle.RunDate(); err != nil {
		return err
	}

	switch domain.Flavor(c.Cycle.ManualFlavor) {
	case "", domain.FlavorFormal, domain.FlavorInformal:
	default:
		return fmt.Errorf("manual_flavor must be formal or informal, got %q", c.Cycle.ManualFlavor)
	}

	return nil
}
