package memory

import (
	"context"

	"github.com/lunar-city/ticketbot/pkg/domain/interfaces"
)

// Memory is an in-memory repository used for tests and development.
type Memory struct {
	users       *userRepository
	tickets     *ticketRepository
	transcripts *transcriptRepository
	stats       *statsRepository
	setups      *setupRepository
	archives    *archiveRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		users:       newUserRepository(),
		tickets:     newTicketRepository(),
		transcripts: newTranscriptRepository(),
		stats:       newStatsRepository(),
		setups:      newSetupRepository(),
		archives:    newArchiveRepository(),
	}
}

func (m *Memory) User() interfaces.UserRepository             { return m.users }
func (m *Memory) Ticket() interfaces.TicketRepository         { return m.tickets }
func (m *Memory) Transcript() interfaces.TranscriptRepository { return m.transcripts }
func (m *Memory) Stats() interfaces.StatsRepository           { return m.stats }
func (m *Memory) Setup() interfaces.SetupRepository           { return m.setups }
func (m *Memory) Archive() interfaces.ArchiveRepository       { return m.archives }

func (m *Memory) Wipe(ctx context.Context) error {
	m.users.reset()
	m.tickets.reset()
	m.transcripts.reset()
	m.stats.reset()
	m.setups.reset()
	m.archives.reset()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
