// Package channel provides models and repository for the channel registry.
// Every tracked channel carries the timezone offset its daily buckets are
// computed in.
package channel

import (
	"errors"
	"fmt"
	"time"

	"github.com/onnwee/airtime/internal/validate"
)

var (
	// ErrChannelNotFound is returned when a channel is not in the registry.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrInvalidChannel is returned when a channel fails validation.
	ErrInvalidChannel = errors.New("invalid channel")
)

// Channel is a tracked live channel.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TzOffsetMin int       `json:"tzOffsetMin"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the channel for required fields and a sane offset.
// Name and AvatarURL are normalized in place.
func (c *Channel) Validate() error {
	if _, err := validate.ChannelID(c.ID); err != nil {
		return fmt.Errorf("channel id: %w", err)
	}

	name, err := validate.ChannelName(c.Name)
	if err != nil {
		return fmt.Errorf("channel name: %w", err)
	}
	c.Name = name

	avatarURL, err := validate.AvatarURL(c.AvatarURL)
	if err != nil {
		return fmt.Errorf("avatar url: %w", err)
	}
	c.AvatarURL = avatarURL

	// UTC-12 through UTC+14 covers every civil timezone.
	if c.TzOffsetMin < -12*60 || c.TzOffsetMin > 14*60 {
		return errors.New("tz offset out of range")
	}
	return nil
}
