// Package mock provides an in-memory chat.Service for tests. It keeps
// real state for containers, channels, members, messages and pins so
// tests can assert on the side effects of ticket operations.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lunar-city/ticketbot/pkg/domain/model"
	"github.com/lunar-city/ticketbot/pkg/domain/types"
	"github.com/lunar-city/ticketbot/pkg/service/chat"
)

// Channel is the mock's record of one channel.
type Channel struct {
	ID        types.ChannelID
	Name      string
	Container types.ContainerID
	Topic     string
	Members   map[types.UserID]bool
	Messages  []chat.Message
	Pins      map[types.MessageID]bool
	Deleted   bool
}

// Service is the in-memory chat.Service. The zero value is not usable,
// call New.
type Service struct {
	mu sync.Mutex

	containers  map[string]types.ContainerID
	channels    map[types.ChannelID]*Channel
	dms         map[types.UserID][]string
	unreachable map[types.UserID]bool

	botID   types.UserID
	nextSeq int
}

var _ chat.Service = &Service{}

func New() *Service {
	return &Service{
		containers:  make(map[string]types.ContainerID),
		channels:    make(map[types.ChannelID]*Channel),
		dms:         make(map[types.UserID][]string),
		unreachable: make(map[types.UserID]bool),
		botID:       "BOT",
	}
}

func (s *Service) EnsureContainer(ctx context.Context, name string) (types.ContainerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.containers[name]; ok {
		return id, nil
	}
	id := types.ContainerID(fmt.Sprintf("container-%d", len(s.containers)+1))
	s.containers[name] = id
	return id, nil
}

// ContainerCount reports how many distinct containers were created.
func (s *Service) ContainerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.containers)
}

func (s *Service) CreateChannel(ctx context.Context, name string, container types.ContainerID, topic string, owner types.UserID) (types.ChannelID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	id := types.ChannelID(fmt.Sprintf("C%06d", s.nextSeq))
	s.channels[id] = &Channel{
		ID:        id,
		Name:      name,
		Container: container,
		Topic:     topic,
		Members:   map[types.UserID]bool{owner: true},
		Pins:      make(map[types.MessageID]bool),
	}
	return id, nil
}

func (s *Service) channel(id types.ChannelID) (*Channel, error) {
	ch, ok := s.channels[id]
	if !ok || ch.Deleted {
		return nil, goerr.Wrap(chat.ErrChannelNotFound, "no such channel", goerr.V("channel_id", id))
	}
	return ch, nil
}

// GetChannel returns the channel state for assertions, including
// deleted channels. Returns nil when the ID was never created.
func (s *Service) GetChannel(id types.ChannelID) *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[id]
}

func (s *Service) GrantAccess(ctx context.Context, id types.ChannelID, user types.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	ch.Members[user] = true
	return nil
}

func (s *Service) RevokeAccess(ctx context.Context, id types.ChannelID, user types.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	delete(ch.Members, user)
	return nil
}

func (s *Service) MoveToContainer(ctx context.Context, id types.ChannelID, container types.ContainerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	ch.Container = container
	return nil
}

func (s *Service) DeleteChannel(ctx context.Context, id types.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	ch.Deleted = true
	return nil
}

func (s *Service) post(id types.ChannelID, author types.UserID, text string, interactive bool) (types.MessageID, error) {
	ch, err := s.channel(id)
	if err != nil {
		return "", err
	}

	s.nextSeq++
	msg := chat.Message{
		ID:          types.MessageID(fmt.Sprintf("M%06d", s.nextSeq)),
		Author:      author,
		Text:        text,
		Timestamp:   time.Now().UTC(),
		Interactive: interactive,
	}
	ch.Messages = append(ch.Messages, msg)
	return msg.ID, nil
}

func (s *Service) PostMessage(ctx context.Context, id types.ChannelID, text string) (types.MessageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post(id, s.botID, text, false)
}

func (s *Service) PostWelcome(ctx context.Context, id types.ChannelID, ticket *model.Ticket) (types.MessageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := fmt.Sprintf("welcome %s (%s)", ticket.TicketID, ticket.Category)
	return s.post(id, s.botID, text, true)
}

func (s *Service) PinMessage(ctx context.Context, id types.ChannelID, msg types.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	ch.Pins[msg] = true
	return nil
}

// SetUnreachable marks a user so that DirectMessage fails for them.
func (s *Service) SetUnreachable(user types.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreachable[user] = true
}

func (s *Service) DirectMessage(ctx context.Context, user types.UserID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unreachable[user] {
		return goerr.Wrap(chat.ErrUserUnreachable, "DMs disabled", goerr.V("user_id", user))
	}
	s.dms[user] = append(s.dms[user], text)
	return nil
}

// DirectMessages returns the DMs delivered to a user.
func (s *Service) DirectMessages(user types.UserID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dms[user]...)
}

func (s *Service) DeleteMessage(ctx context.Context, id types.ChannelID, msg types.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	for i, m := range ch.Messages {
		if m.ID == msg {
			ch.Messages = append(ch.Messages[:i], ch.Messages[i+1:]...)
			return nil
		}
	}
	return goerr.Wrap(chat.ErrMessageNotFound, "no such message",
		goerr.V("channel_id", id), goerr.V("message_id", msg))
}

func (s *Service) History(ctx context.Context, id types.ChannelID) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return nil, err
	}
	return append([]chat.Message(nil), ch.Messages...), nil
}

// InjectMessage adds a message to a channel's history, for transcript
// tests that need authored messages with fixed timestamps.
func (s *Service) InjectMessage(id types.ChannelID, msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.channels[id]
	if ch == nil {
		return
	}
	ch.Messages = append(ch.Messages, msg)
}

func (s *Service) GetMessage(ctx context.Context, id types.ChannelID, msg types.MessageID) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return nil, err
	}
	for i := range ch.Messages {
		if ch.Messages[i].ID == msg {
			found := ch.Messages[i]
			return &found, nil
		}
	}
	return nil, goerr.Wrap(chat.ErrMessageNotFound, "no such message",
		goerr.V("channel_id", id), goerr.V("message_id", msg))
}

func (s *Service) PublishSetupMenu(ctx context.Context, id types.ChannelID) (types.MessageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post(id, s.botID, "setup menu", true)
}

func (s *Service) AttachSetupMenu(ctx context.Context, id types.ChannelID, msg types.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel(id)
	if err != nil {
		return err
	}
	for i := range ch.Messages {
		if ch.Messages[i].ID == msg {
			ch.Messages[i].Interactive = true
			return nil
		}
	}
	return goerr.Wrap(chat.ErrMessageNotFound, "no such message",
		goerr.V("channel_id", id), goerr.V("message_id", msg))
}

// AddChannel registers a bare channel, for setup-message tests that
// need a lobby channel the mock did not create itself.
func (s *Service) AddChannel(id types.ChannelID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels[id] = &Channel{
		ID:      id,
		Name:    name,
		Members: make(map[types.UserID]bool),
		Pins:    make(map[types.MessageID]bool),
	}
}

// DropInteractive clears the Interactive flag on every message in the
// channel, simulating a platform that dropped message components.
func (s *Service) DropInteractive(id types.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.channels[id]
	if ch == nil {
		return
	}
	for i := range ch.Messages {
		ch.Messages[i].Interactive = false
	}
}

func (s *Service) GetMember(ctx context.Context, user types.UserID) (*chat.Member, error) {
	return &chat.Member{ID: user, DisplayName: "user-" + user.String()}, nil
}

func (s *Service) BotUserID() types.UserID {
	return s.botID
}
