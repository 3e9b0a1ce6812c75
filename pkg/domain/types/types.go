package types

import "github.com/m-mizutani/goerr/v2"

// UserID is an opaque chat-platform user identity.
type UserID string

func (id UserID) String() string { return string(id) }

func (id UserID) Validate() error {
	if id == "" {
		return goerr.New("user ID is required")
	}
	return nil
}

// ChannelID identifies a chat channel. Each ticket owns exactly one channel.
type ChannelID string

func (id ChannelID) String() string { return string(id) }

func (id ChannelID) Validate() error {
	if id == "" {
		return goerr.New("channel ID is required")
	}
	return nil
}

// MessageID identifies a message within a channel.
type MessageID string

func (id MessageID) String() string { return string(id) }

// ContainerID identifies a channel grouping container on the chat platform.
type ContainerID string

func (id ContainerID) String() string { return string(id) }
