package dialog

import (
	"context"
	"strings"
	"time"

	"github.com/arogyaai/reception-platform/pkg/logging"
)

// Answerer answers general questions in the general-assistant mode. The
// booking flow never consults it.
type Answerer interface {
	Answer(ctx context.Context, question string, lang Language) (string, error)
}

// faqEntry is one keyword-matched answer. The static table is both the
// no-LLM deployment path and the fallback when the model fails.
type faqEntry struct {
	keywords []string
	answerEN string
	answerHI string
}

var staticFAQs = []faqEntry{
	{
		keywords: []string{"visiting hours", "visiting time", "milne ka samay", "मिलने का समय"},
		answerEN: "Visiting hours are 10 AM to 12 PM and 4 PM to 7 PM every day.",
		answerHI: "मिलने का समय रोज़ सुबह 10 से 12 और शाम 4 से 7 बजे तक है।",
	},
	{
		keywords: []string{"address", "located", "kahan hai", "कहाँ"},
		answerEN: "We are at Arogya Hospital, Sector 12, near the metro station.",
		answerHI: "हम आरोग्य अस्पताल, सेक्टर 12, मेट्रो स्टेशन के पास स्थित हैं।",
	},
	{
		keywords: []string{"timing", "open", "opd", "khula", "खुला"},
		answerEN: "The OPD is open from 9 AM to 8 PM, Monday through Saturday.",
		answerHI: "ओपीडी सोमवार से शनिवार, सुबह 9 से रात 8 बजे तक खुली रहती है।",
	},
	{
		keywords: []string{"emergency number", "ambulance", "एम्बुलेंस"},
		answerEN: "For emergencies and ambulance service, please call 102.",
		answerHI: "आपातकाल और एम्बुलेंस के लिए कृपया 102 पर कॉल करें।",
	},
	{
		keywords: []string{"department", "specialit", "vibhag", "विभाग"},
		answerEN: "We have Cardiology, Orthopedics, Pediatrics, Dermatology, Neurology, ENT, Gynecology and General Medicine.",
		answerHI: "हमारे यहाँ हृदय रोग, हड्डी रोग, बाल रोग, त्वचा रोग, तंत्रिका रोग, कान नाक गला, स्त्री रोग और सामान्य चिकित्सा विभाग हैं।",
	},
}

// StaticAnswerer serves answers from the keyword table alone.
type StaticAnswerer struct{}

// Answer matches the question against the FAQ table. The error is always
// nil; an unmatched question gets a polite "ask reception" answer.
func (StaticAnswerer) Answer(_ context.Context, question string, lang Language) (string, error) {
	text := normalizeUtterance(question)
	for _, entry := range staticFAQs {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				if lang == LangHindi {
					return entry.answerHI, nil
				}
				return entry.answerEN, nil
			}
		}
	}
	if lang == LangHindi {
		return "माफ़ कीजिए, इसका जवाब मेरे पास नहीं है। रिसेप्शन टीम से बात करने के लिए 'एजेंट' कहिए।", nil
	}
	return "I'm sorry, I don't have an answer for that. Say agent if you would like to talk to our reception team.", nil
}

const knowledgeSystemPrompt = `You are a hospital reception assistant answering general questions over the phone.
Answer in one or two short spoken sentences. Answer in the same language as the question.
If the question needs medical judgment, say the caller should talk to a doctor and suggest saying "agent".
Never invent doctor names, timings or phone numbers.`

// LLMAnswerer answers through the model and falls back to the static table
// on any failure.
type LLMAnswerer struct {
	llm     LLMClient
	model   string
	timeout time.Duration
	static  StaticAnswerer
	log     *logging.Logger
}

// NewLLMAnswerer creates an answerer backed by an LLM. A nil client yields
// static answers only.
func NewLLMAnswerer(llm LLMClient, model string, timeout time.Duration, log *logging.Logger) *LLMAnswerer {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &LLMAnswerer{llm: llm, model: model, timeout: timeout, log: log}
}

func (a *LLMAnswerer) Answer(ctx context.Context, question string, lang Language) (string, error) {
	if a.llm == nil || a.model == "" {
		return a.static.Answer(ctx, question, lang)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.llm.Complete(ctx, LLMRequest{
		Model:       a.model,
		System:      []string{knowledgeSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: question}},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	if err != nil || strings.TrimSpace(out.Text) == "" {
		if a.log != nil && err != nil {
			a.log.Warn("knowledge answer fell back to static table", "error", err)
		}
		return a.static.Answer(ctx, question, lang)
	}
	return strings.TrimSpace(out.Text), nil
}
