package dialog

import (
	"context"
	"strings"
	"time"

	"github.com/arogyaai/reception-platform/pkg/logging"
)

// Polisher optionally rewrites the engine's deterministic response into more
// natural speech. It is best-effort: any failure, timeout or suspicious
// rewrite falls back to the original text, so the call never stalls on the
// model.
type Polisher struct {
	llm     LLMClient
	model   string
	timeout time.Duration
	log     *logging.Logger
}

// NewPolisher creates a polisher. llm may be nil, which disables polishing.
func NewPolisher(llm LLMClient, model string, timeout time.Duration, log *logging.Logger) *Polisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Polisher{llm: llm, model: model, timeout: timeout, log: log}
}

// skipPolish lists the response categories that must reach the caller
// verbatim: transfers, numbered doctor lists the next turn matches against,
// the name/phone/time collection prompts, and anything carrying a
// confirmation ID.
func skipPolish(res TurnResult) bool {
	if res.Transfer || res.Confirmed {
		return true
	}
	switch res.State {
	case StateChooseDoctor, StateCollectName, StateCollectPhone, StateCollectTime, StateConfirmed:
		return true
	}
	return false
}

const polishSystemPrompt = `You rewrite a hospital receptionist's reply to sound natural when spoken aloud.
Rules:
- Keep every fact: names, numbers, departments, days and times must appear unchanged.
- Keep the same language as the input (Hindi stays Hindi, English stays English).
- One or two short sentences. No greetings, no emojis, no extra questions.
Reply with the rewritten text only.`

// Apply returns the polished response, or the input unchanged when
// polishing is disabled, skipped or fails.
func (p *Polisher) Apply(ctx context.Context, res TurnResult) TurnResult {
	if p == nil || p.llm == nil || p.model == "" {
		return res
	}
	if skipPolish(res) {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.llm.Complete(ctx, LLMRequest{
		Model:       p.model,
		System:      []string{polishSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: res.SpokenText}},
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		if p.log != nil {
			p.log.Warn("polish skipped", "error", err)
		}
		return res
	}
	text := strings.TrimSpace(out.Text)
	if text == "" || !preservesDigits(res.SpokenText, text) {
		return res
	}
	polished := res
	polished.SpokenText = text
	return polished
}

// preservesDigits verifies the rewrite kept every digit run of the
// original. Losing a phone number or slot time to a paraphrase is worse
// than robotic phrasing.
func preservesDigits(original, rewritten string) bool {
	for _, run := range phoneRunRE.FindAllString(original, -1) {
		if !strings.Contains(rewritten, run) {
			return false
		}
	}
	return true
}
