package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticketbot.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestTicketLoadDefaults(t *testing.T) {
	var cfg Ticket
	gt.NoError(t, cfg.Load()).Required()

	gt.Array(t, cfg.Categories).Length(6)
	gt.Value(t, cfg.Categories[0].ID).Equal("reportPlayer")
	gt.Value(t, cfg.InactivityInterval()).Equal(24 * time.Hour)
	gt.Value(t, cfg.InactiveThreshold()).Equal(3 * 24 * time.Hour)
	gt.Value(t, cfg.ArchiveInterval()).Equal(6 * time.Hour)
	gt.Value(t, cfg.ArchiveRetention()).Equal(10 * 24 * time.Hour)
}

func TestTicketLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[[category]]
id = "support"
name = "General Support"
emoji = "💬"

[staff]
users = ["U111", "U222"]

[sweep]
inactive_close_days = 7
archive_delete_days = 30
`)

	cfg := Ticket{configPath: path}
	gt.NoError(t, cfg.Load()).Required()

	gt.Array(t, cfg.Categories).Length(1)
	gt.Value(t, cfg.Categories[0].Name).Equal("General Support")
	gt.Array(t, cfg.StaffUsers()).Length(2)

	// File overrides merge with the schedule defaults
	gt.Value(t, cfg.InactiveThreshold()).Equal(7 * 24 * time.Hour)
	gt.Value(t, cfg.ArchiveRetention()).Equal(30 * 24 * time.Hour)
	gt.Value(t, cfg.InactivityInterval()).Equal(24 * time.Hour)
}

func TestTicketLoadRejectsBadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := Ticket{configPath: "/no/such/file.toml"}
		gt.Error(t, cfg.Load()).Is(ErrConfigNotFound)
	})

	t.Run("duplicate category IDs", func(t *testing.T) {
		path := writeConfig(t, `
[[category]]
id = "support"
name = "Support"

[[category]]
id = "support"
name = "Support Again"
`)
		cfg := Ticket{configPath: path}
		gt.Error(t, cfg.Load()).Is(ErrDuplicateCategoryID)
	})

	t.Run("category without a name", func(t *testing.T) {
		path := writeConfig(t, `
[[category]]
id = "support"
`)
		cfg := Ticket{configPath: path}
		gt.Error(t, cfg.Load())
	})

	t.Run("non-positive sweep values", func(t *testing.T) {
		path := writeConfig(t, `
[sweep]
inactive_close_days = 0
`)
		cfg := Ticket{configPath: path}
		gt.Error(t, cfg.Load())
	})
}
