package slack

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestNormalizeChannelName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "tk-reportbug", "tk-reportbug"},
		{"uppercase folded", "TK-ReportBug", "tk-reportbug"},
		{"spaces become hyphens", "report a bug", "report-a-bug"},
		{"symbols dropped", "tk!@#bug", "tkbug"},
		{"trailing hyphens trimmed", "tk-bug---", "tk-bug"},
		{"underscores kept", "tk_bug_1", "tk_bug_1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, NormalizeChannelName(tc.input)).Equal(tc.want)
		})
	}

	t.Run("caps at 80 characters", func(t *testing.T) {
		long := strings.Repeat("a", 100)
		gt.Value(t, len(NormalizeChannelName(long))).Equal(80)
	})
}

func TestTicketChannelName(t *testing.T) {
	gt.Value(t, ticketChannelName("tk-reportbug", "A1B2C3D4")).Equal("tk-reportbug-a1b2c3d4")
}

func TestRetagChannelName(t *testing.T) {
	// Archive retag keeps the ticket token, swaps the prefix
	gt.Value(t, retagChannelName("arch", "tk-reportbug-a1b2c3d4")).Equal("arch-a1b2c3d4")
	gt.Value(t, retagChannelName("arch", "nodash")).Equal("arch-nodash")
}
