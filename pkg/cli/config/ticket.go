package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
)

// Ticket is the application configuration: categories, staff, and the
// sweep schedule. Loaded from a TOML file; every field has a default so
// the bot runs without one.
type Ticket struct {
	configPath string

	Categories []Category  `toml:"category"`
	Staff      StaffConfig `toml:"staff"`
	Sweep      SweepConfig `toml:"sweep"`
}

// Category is one configured ticket category
type Category struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Emoji string `toml:"emoji"`
}

// Validate checks if the Category is valid
func (c *Category) Validate() error {
	id := types.CategoryID(c.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category ID")
	}
	if c.Name == "" {
		return goerr.New("category name is required", goerr.V("id", c.ID))
	}
	return nil
}

// StaffConfig lists the user IDs holding the staff capability
type StaffConfig struct {
	Users []string `toml:"users"`
}

// SweepConfig holds the sweep schedule and thresholds
type SweepConfig struct {
	InactivityIntervalHours int `toml:"inactivity_interval_hours"`
	InactiveCloseDays       int `toml:"inactive_close_days"`
	ArchiveIntervalHours    int `toml:"archive_interval_hours"`
	ArchiveDeleteDays       int `toml:"archive_delete_days"`
}

// Validate checks if the SweepConfig is valid
func (s *SweepConfig) Validate() error {
	if s.InactivityIntervalHours <= 0 {
		return goerr.New("inactivity_interval_hours must be positive",
			goerr.V("value", s.InactivityIntervalHours))
	}
	if s.InactiveCloseDays <= 0 {
		return goerr.New("inactive_close_days must be positive",
			goerr.V("value", s.InactiveCloseDays))
	}
	if s.ArchiveIntervalHours <= 0 {
		return goerr.New("archive_interval_hours must be positive",
			goerr.V("value", s.ArchiveIntervalHours))
	}
	if s.ArchiveDeleteDays <= 0 {
		return goerr.New("archive_delete_days must be positive",
			goerr.V("value", s.ArchiveDeleteDays))
	}
	return nil
}

func (t *Ticket) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the TOML application config",
			Category:    "Config",
			Sources:     cli.EnvVars("TICKETBOT_CONFIG"),
			Destination: &t.configPath,
		},
	}
}

// defaultCategories matches the category set the bot shipped with.
func defaultCategories() []Category {
	return []Category{
		{ID: "reportPlayer", Name: "Report a Player", Emoji: "🚨"},
		{ID: "reportBug", Name: "Report a Bug", Emoji: "🐛"},
		{ID: "buyBusiness", Name: "Buy a Business", Emoji: "🏢"},
		{ID: "buyEDM", Name: "Buy EDM", Emoji: "🎵"},
		{ID: "bookAuction", Name: "Book an Auction", Emoji: "🔨"},
		{ID: "other", Name: "Other", Emoji: "❓"},
	}
}

// Load reads and validates the TOML config, filling defaults for
// anything the file omits.
func (t *Ticket) Load() error {
	t.Sweep = SweepConfig{
		InactivityIntervalHours: 24,
		InactiveCloseDays:       3,
		ArchiveIntervalHours:    6,
		ArchiveDeleteDays:       10,
	}

	if t.configPath != "" {
		data, err := os.ReadFile(t.configPath)
		if err != nil {
			return goerr.Wrap(ErrConfigNotFound, "failed to read config file",
				goerr.V(ConfigPathKey, t.configPath))
		}
		if err := toml.Unmarshal(data, t); err != nil {
			return goerr.Wrap(err, "failed to parse config file",
				goerr.V(ConfigPathKey, t.configPath))
		}
	}

	if len(t.Categories) == 0 {
		t.Categories = defaultCategories()
	}

	seen := map[string]bool{}
	for i := range t.Categories {
		if err := t.Categories[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid category", goerr.V("index", i))
		}
		if seen[t.Categories[i].ID] {
			return goerr.Wrap(ErrDuplicateCategoryID, "category IDs must be unique",
				goerr.V("id", t.Categories[i].ID))
		}
		seen[t.Categories[i].ID] = true
	}

	if err := t.Sweep.Validate(); err != nil {
		return goerr.Wrap(err, "invalid sweep config")
	}

	return nil
}

// ChatCategories converts the configured categories for the chat service.
func (t *Ticket) ChatCategories() []chat.Category {
	categories := make([]chat.Category, 0, len(t.Categories))
	for _, c := range t.Categories {
		categories = append(categories, chat.Category{
			ID:    types.CategoryID(c.ID),
			Name:  c.Name,
			Emoji: c.Emoji,
		})
	}
	return categories
}

// StaffUsers returns the statically configured staff user IDs.
func (t *Ticket) StaffUsers() []types.UserID {
	users := make([]types.UserID, 0, len(t.Staff.Users))
	for _, u := range t.Staff.Users {
		users = append(users, types.UserID(u))
	}
	return users
}

// InactivityInterval returns how often the inactivity sweep runs.
func (t *Ticket) InactivityInterval() time.Duration {
	return time.Duration(t.Sweep.InactivityIntervalHours) * time.Hour
}

// InactiveThreshold returns how long a ticket may stay idle before the
// sweep closes it.
func (t *Ticket) InactiveThreshold() time.Duration {
	return time.Duration(t.Sweep.InactiveCloseDays) * 24 * time.Hour
}

// ArchiveInterval returns how often the deletion sweep runs.
func (t *Ticket) ArchiveInterval() time.Duration {
	return time.Duration(t.Sweep.ArchiveIntervalHours) * time.Hour
}

// ArchiveRetention returns how long closed channels are kept.
func (t *Ticket) ArchiveRetention() time.Duration {
	return time.Duration(t.Sweep.ArchiveDeleteDays) * 24 * time.Hour
}
