package chat

import (
	"context"
	"fmt"
	"strings"

	"voicechat/backend/internal/llm"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/retriever"
)

const (
	// DefaultSystemPrompt is the instruction sent ahead of every conversation.
	DefaultSystemPrompt = "You are a helpful AI assistant."
	// ErrorText is the reply shown when the completion provider fails.
	ErrorText = "Sorry, I encountered an error."
	// DocumentsHeader introduces retrieved documents in the prompt.
	DocumentsHeader = "\n\nRelevant documents:\n"
	// DocumentExcerptChars is how much of each document's content is quoted.
	DocumentExcerptChars = 200
)

// Retriever finds documents related to the user's message.
type Retriever interface {
	Enabled() bool
	Search(ctx context.Context, queryText string, topN int) retriever.Result
}

// Completer produces the assistant reply.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// Synthesizer speaks the assistant reply.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, bool)
}

// Options are the fixed per-process settings of an Orchestrator.
type Options struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	TopN         int
	AudioEnabled bool
	Voice        string
}

// DefaultOptions returns the standard completion settings with audio off.
func DefaultOptions() Options {
	return Options{
		SystemPrompt: DefaultSystemPrompt,
		MaxTokens:    800,
		Temperature:  0.7,
		TopN:         retriever.DefaultTopN,
	}
}

// Orchestrator runs one chat turn: retrieve, complete, synthesize.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	retriever   Retriever
	completer   Completer
	synthesizer Synthesizer
	opts        Options
}

// NewOrchestrator wires the collaborators. retriever and synthesizer may be nil.
func NewOrchestrator(r Retriever, c Completer, s Synthesizer, opts Options) *Orchestrator {
	return &Orchestrator{
		retriever:   r,
		completer:   c,
		synthesizer: s,
		opts:        opts,
	}
}

// HandleTurn answers userMessage given the prior history. On success the
// returned history is history plus the user message and the reply; on
// completion failure it is history unchanged and Error is set.
func (o *Orchestrator) HandleTurn(ctx context.Context, userMessage string, history []Turn) Response {
	log.Logger.Infow("received user message", "message", log.Truncate(userMessage, 100), "history_len", len(history))

	prompt := userMessage
	if o.retriever != nil && o.retriever.Enabled() {
		res := o.retriever.Search(ctx, userMessage, o.opts.TopN)
		log.Logger.Debugw("document search finished", "status", res.Status.String(), "documents", len(res.Documents))
		if res.Status == retriever.StatusFound {
			prompt += BuildContext(res.Documents)
		}
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: RoleSystem, Content: o.opts.SystemPrompt})
	for _, t := range history {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: RoleUser, Content: prompt})

	reply, err := o.completer.Complete(ctx, messages, llm.Params{
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		log.Logger.Errorw("error in chat completion", "error", err)
		return Response{
			Error:               err.Error(),
			Text:                ErrorText,
			ConversationHistory: cloneHistory(history, 0),
		}
	}
	log.Logger.Infow("received completion", "reply", log.Truncate(reply, 100))

	var audio *string
	if o.opts.AudioEnabled && o.synthesizer != nil {
		if encoded, ok := o.synthesizer.Synthesize(ctx, reply, o.opts.Voice); ok {
			audio = &encoded
		}
	}

	updated := cloneHistory(history, 2)
	updated = append(updated,
		Turn{Role: RoleUser, Content: userMessage},
		Turn{Role: RoleAssistant, Content: reply},
	)

	return Response{
		Text:                reply,
		Audio:               audio,
		ConversationHistory: updated,
	}
}

// BuildContext renders retrieved documents as the block appended to the
// user's prompt. It returns "" when docs is empty.
func BuildContext(docs []retriever.Document) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(DocumentsHeader)
	for _, d := range docs {
		fmt.Fprintf(&b, "- %s (Source: %s): %s...\n", d.Title, d.Source, excerpt(d.Content, DocumentExcerptChars))
	}
	return b.String()
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cloneHistory copies history into a fresh, non-nil slice with room for extra turns.
func cloneHistory(history []Turn, extra int) []Turn {
	out := make([]Turn, len(history), len(history)+extra)
	copy(out, history)
	return out
}
