package model

import "github.com/secmon-lab/gathsalt/pkg/domain/types"

// ChatTurn is one message of a follow-up conversation about an Insight
type ChatTurn struct {
	Role types.ChatRole `json:"role"`
	Text string         `json:"text"`
}

// Transcript is an append-only sequence of chat turns
type Transcript []ChatTurn

// Append returns a new transcript with turns added; the receiver is left untouched
// so that snapshots handed to callers never change underneath them.
func (t Transcript) Append(turns ...ChatTurn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}
