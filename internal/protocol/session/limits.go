package session

import "errors"

var (
	ErrDuplicateMessage = errors.New("duplicate message")
	ErrTooFarInFuture   = errors.New("message counter too far in the future")
)

// Limits bound the memory a single session may use.
type Limits struct {
	// MaxReceiverChains caps how many peer ratchet keys are remembered.
	MaxReceiverChains int `json:"max_receiver_chains" validate:"min=1"`
	// MaxMessageKeys caps the skipped-key cache of one receiver chain.
	MaxMessageKeys int `json:"max_message_keys" validate:"min=1"`
	// MaxFutureMessages caps how far ahead of its chain a counter may be.
	MaxFutureMessages int `json:"max_future_messages" validate:"min=1"`
}

// DefaultLimits returns 5 receiver chains, 2000 skipped keys per chain, and
// a gap of at most 500.
func DefaultLimits() Limits {
	return Limits{
		MaxReceiverChains: 5,
		MaxMessageKeys:    2000,
		MaxFutureMessages: 500,
	}
}

func (l Limits) orDefault() Limits {
	d := DefaultLimits()
	if l.MaxReceiverChains <= 0 {
		l.MaxReceiverChains = d.MaxReceiverChains
	}
	if l.MaxMessageKeys <= 0 {
		l.MaxMessageKeys = d.MaxMessageKeys
	}
	if l.MaxFutureMessages <= 0 {
		l.MaxFutureMessages = d.MaxFutureMessages
	}
	return l
}
