package dialog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arogyaai/reception-platform/internal/observability/metrics"
	"github.com/arogyaai/reception-platform/pkg/logging"
)

// CallService is the production Service: it serializes turns per call,
// loads and saves the session, runs the engine (or the knowledge answerer
// in general mode), applies optional polish and records the transcript.
type CallService struct {
	engine      *Engine
	sessions    SessionStore
	transcripts TranscriptStore
	audit       *AuditStore
	polisher    *Polisher
	answerer    Answerer
	metrics     *metrics.VoiceMetrics
	log         *logging.Logger
	defaultMode Mode
	defaultLang Language

	mu    sync.Mutex
	locks map[string]*callLock
}

type callLock struct {
	mu   sync.Mutex
	refs int
}

// CallServiceConfig wires the service's collaborators. Engine and Sessions
// are required; everything else may be nil.
type CallServiceConfig struct {
	Engine      *Engine
	Sessions    SessionStore
	Transcripts TranscriptStore
	Audit       *AuditStore
	Polisher    *Polisher
	Answerer    Answerer
	Metrics     *metrics.VoiceMetrics
	Log         *logging.Logger
	DefaultMode Mode
	DefaultLang Language
}

// NewCallService creates the call service.
func NewCallService(cfg CallServiceConfig) *CallService {
	return &CallService{
		engine:      cfg.Engine,
		sessions:    cfg.Sessions,
		transcripts: cfg.Transcripts,
		audit:       cfg.Audit,
		polisher:    cfg.Polisher,
		answerer:    cfg.Answerer,
		metrics:     cfg.Metrics,
		log:         cfg.Log,
		defaultMode: cfg.DefaultMode,
		defaultLang: cfg.DefaultLang,
		locks:       make(map[string]*callLock),
	}
}

// lockCall serializes turn processing per call. Carriers retry webhooks and
// can deliver two turns for the same call almost simultaneously; running
// them concurrently would double-ask or lose a slot update.
func (s *CallService) lockCall(callID string) func() {
	s.mu.Lock()
	l, ok := s.locks[callID]
	if !ok {
		l = &callLock{}
		s.locks[callID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, callID)
		}
		s.mu.Unlock()
	}
}

// ProcessTurn runs one caller utterance through the pipeline and returns
// what to speak. The engine itself never fails; an error here means a
// store/collaborator problem the transport should convert to the fixed
// apology message.
func (s *CallService) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.CallID == "" {
		return nil, fmt.Errorf("dialog: call id required")
	}
	unlock := s.lockCall(req.CallID)
	defer unlock()

	started := time.Now()

	sess, err := s.sessions.Get(ctx, req.CallID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &Session{
			CallID:    req.CallID,
			Mode:      s.defaultMode,
			State:     StateNew,
			Language:  s.defaultLang,
			CreatedAt: time.Now().UTC(),
		}
		if sess.Mode == "" {
			sess.Mode = ModeHospital
		}
		if sess.Language == "" {
			sess.Language = LangAuto
		}
		if s.audit != nil {
			if _, err := s.audit.EnsureCall(ctx, sess); err != nil && s.log != nil {
				s.log.WithCall(req.CallID).Warn("audit ensure call failed", "error", err)
			}
		}
	}

	var res TurnResult
	switch sess.Mode {
	case ModeGeneral:
		res = s.generalTurn(ctx, sess, req.Utterance)
	default:
		res = s.engine.Turn(sess, req.Utterance)
	}

	if s.polisher != nil {
		res = s.polisher.Apply(ctx, res)
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.recordTranscript(ctx, req.CallID, req.Utterance, res.SpokenText)

	if s.metrics != nil {
		s.metrics.ObserveTurn(string(sess.Mode), string(sess.State), time.Since(started).Seconds())
		if res.Transfer {
			s.metrics.ObserveTransfer(res.TransferReason)
		}
		if res.Confirmed {
			s.metrics.ObserveConfirmation()
		}
	}
	if s.audit != nil && (res.Transfer || res.Confirmed) {
		if err := s.audit.FinishCall(ctx, sess, res.Transfer, res.TransferReason); err != nil && s.log != nil {
			s.log.WithCall(req.CallID).Warn("audit finish call failed", "error", err)
		}
	}
	if s.log != nil {
		s.log.WithCall(req.CallID).Info("turn processed",
			"mode", string(sess.Mode),
			"state", string(sess.State),
			"language", string(res.Language),
			"transfer", res.Transfer,
			"confirmed", res.Confirmed,
		)
	}
	return &res, nil
}

// generalTurn handles the general-assistant persona: escalation checks still
// apply, everything else goes to the knowledge answerer.
func (s *CallService) generalTurn(ctx context.Context, sess *Session, utterance string) TurnResult {
	if lang := DetectLanguage(utterance); lang != LangAuto {
		sess.Language = lang
	}
	lang := renderLang(sess)
	composer := s.engine.Composer()

	if WantsHuman(utterance) {
		return TurnResult{
			SpokenText:     composer.Handoff(lang),
			Language:       lang,
			Transfer:       true,
			TransferReason: "human_request",
			State:          sess.State,
		}
	}
	if LooksLikeMedicalAdvice(utterance) {
		return TurnResult{
			SpokenText:     composer.Handoff(lang),
			Language:       lang,
			Transfer:       true,
			TransferReason: "medical_advice",
			State:          sess.State,
		}
	}

	answerer := s.answerer
	if answerer == nil {
		answerer = StaticAnswerer{}
	}
	answer, err := answerer.Answer(ctx, utterance, lang)
	if err != nil || answer == "" {
		answer = composer.GenericHelp(lang)
	}
	return TurnResult{SpokenText: answer, Language: lang, State: sess.State}
}

// recordTranscript appends both sides of the exchange. Transcript failures
// are logged, never surfaced: losing an audit line must not break the call.
func (s *CallService) recordTranscript(ctx context.Context, callID, utterance, spoken string) {
	now := time.Now().UTC()
	entries := []TranscriptEntry{
		{Role: "user", Content: utterance, Timestamp: now},
		{Role: "assistant", Content: spoken, Timestamp: now},
	}
	for _, entry := range entries {
		if s.transcripts != nil {
			if err := s.transcripts.Append(ctx, callID, entry); err != nil && s.log != nil {
				s.log.WithCall(callID).Warn("transcript append failed", "error", err)
			}
		}
		if s.audit != nil {
			if err := s.audit.SaveTurn(ctx, callID, entry); err != nil && s.log != nil {
				s.log.WithCall(callID).Warn("audit turn failed", "error", err)
			}
		}
	}
}
