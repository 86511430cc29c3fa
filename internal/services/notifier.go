package services

import (
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// PubNubNotifier publishes purchase-outcome messages to per-buyer
// channels. Publishing is best effort; a delivery failure never affects
// the purchase state.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) Publish(channel string, message map[string]any) {
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		slog.Warn("pubnub publish failed", "channel", channel, "error", err)
	}
}
