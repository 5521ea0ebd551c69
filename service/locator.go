package service

import (
	"fmt"
	"strings"

	"github.com/layer-3/clearport/core"
)

// ChannelLocator filters the discovered channel list for one usable channel.
type ChannelLocator struct {
	token string
}

// NewChannelLocator creates a locator for channels funded in the given asset
// contract.
func NewChannelLocator(token string) *ChannelLocator {
	return &ChannelLocator{token: token}
}

// Select returns the first channel that is open, holds the expected asset, and
// has a positive balance. Deterministic first match; no balancing across
// multiple eligible channels.
func (l *ChannelLocator) Select(channels []core.Channel) (core.Channel, error) {
	var wrongStatus, wrongToken, emptyAmount int

	for _, ch := range channels {
		switch {
		case ch.Status != core.ChannelStatusOpen:
			wrongStatus++
		case !strings.EqualFold(ch.Token, l.token):
			wrongToken++
		case !ch.Amount.IsPositive():
			emptyAmount++
		default:
			return ch, nil
		}
	}

	return core.Channel{}, fmt.Errorf(
		"%w: %d channels checked for token %s (%d not open, %d wrong token, %d without funds)",
		core.ErrNoChannel, len(channels), l.token, wrongStatus, wrongToken, emptyAmount)
}
