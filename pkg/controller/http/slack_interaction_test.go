package http

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/lunar-city/ticketbot/pkg/domain/types"
)

func TestParseUserMention(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  types.UserID
		ok    bool
	}{
		{"plain mention", "<@U12345>", "U12345", true},
		{"mention with display name", "<@U12345|alice>", "U12345", true},
		{"mention inside a sentence", "please add <@U12345> here", "U12345", true},
		{"workspace member ID", "<@W99999>", "W99999", true},
		{"no mention", "just text", "", false},
		{"empty", "", "", false},
		{"malformed", "<@>", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseUserMention(tc.input)
			gt.Value(t, ok).Equal(tc.ok)
			gt.Value(t, got).Equal(tc.want)
		})
	}
}
