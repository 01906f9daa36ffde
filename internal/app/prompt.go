package app

import (
	"context"
	"fmt"

	"github.com/Gaurav-Gosain/clipfind/internal/pasteguard"
)

// PromptRequest is a pending multi-line paste confirmation.
type PromptRequest struct {
	Prompt pasteguard.Prompt
	reply  chan pasteguard.Choice
}

// Answer resolves the request. Only the first answer counts.
func (r *PromptRequest) Answer(c pasteguard.Choice) {
	select {
	case r.reply <- c:
	default:
	}
}

// Prompter implements pasteguard.Confirmer by handing requests to the
// update loop and waiting for the user's answer.
type Prompter struct {
	requests chan *PromptRequest
}

var _ pasteguard.Confirmer = (*Prompter)(nil)

// NewPrompter creates a prompter.
func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan *PromptRequest)}
}

// Requests is the channel the update loop listens on.
func (p *Prompter) Requests() <-chan *PromptRequest {
	return p.requests
}

// Confirm blocks until the user answers or ctx is done.
func (p *Prompter) Confirm(ctx context.Context, prompt pasteguard.Prompt) (pasteguard.Choice, error) {
	req := &PromptRequest{Prompt: prompt, reply: make(chan pasteguard.Choice, 1)}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return pasteguard.ChoiceCancel, fmt.Errorf("paste prompt not shown: %w", ctx.Err())
	}

	select {
	case choice := <-req.reply:
		return choice, nil
	case <-ctx.Done():
		return pasteguard.ChoiceCancel, fmt.Errorf("paste prompt abandoned: %w", ctx.Err())
	}
}
