// Package agentstest provides a scripted model.LLM for tests.
package agentstest

import (
	"context"
	"iter"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// LLM replies with Replies in order, repeating the last one once exhausted.
// Err, when set, is yielded instead of any reply.
type LLM struct {
	Replies []string
	Err     error

	mu       sync.Mutex
	requests []*model.LLMRequest
}

// Name implements model.LLM.
func (l *LLM) Name() string { return "scripted" }

// GenerateContent implements model.LLM.
func (l *LLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	l.mu.Lock()
	n := len(l.requests)
	l.requests = append(l.requests, req)
	l.mu.Unlock()

	return func(yield func(*model.LLMResponse, error) bool) {
		if l.Err != nil {
			yield(nil, l.Err)
			return
		}
		reply := ""
		if len(l.Replies) > 0 {
			reply = l.Replies[min(n, len(l.Replies)-1)]
		}
		yield(&model.LLMResponse{
			Content: genai.NewContentFromText(reply, genai.RoleModel),
		}, nil)
	}
}

// Requests returns every request received so far.
func (l *LLM) Requests() []*model.LLMRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*model.LLMRequest(nil), l.requests...)
}

// Text flattens the system instruction and user contents of req.
func Text(req *model.LLMRequest) (system, user string) {
	if req.Config != nil && req.Config.SystemInstruction != nil {
		system = partsText(req.Config.SystemInstruction.Parts)
	}
	for _, c := range req.Contents {
		user += partsText(c.Parts)
	}
	return system, user
}

func partsText(parts []*genai.Part) string {
	var s string
	for _, p := range parts {
		if p != nil {
			s += p.Text
		}
	}
	return s
}
