// Package pipeline sequences one submission through the moderation gateway:
// validate, classify, complete, sanitize, record, then audit off the
// critical path.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaot623/modgate/domain"
	"github.com/xiaot623/modgate/monitor"
	"github.com/xiaot623/modgate/policy"
	"github.com/xiaot623/modgate/sanitizer"
	"github.com/xiaot623/modgate/session"
	"github.com/xiaot623/modgate/validator"
)

// User-facing texts. These are product strings, kept in the product's
// language.
const (
	waitMessage    = "Aguarde um instante antes de enviar outra mensagem."
	failureMessage = "Ocorreu um erro ao processar sua solicitação. Tente novamente."
	refusalMessage = "Não posso responder a esse pedido. " +
		"Posso ajudar com educação financeira geral, como orçamento, juros, investimentos e riscos."
	blockedPrefix = "BLOQUEADO: "
	blockedOutput = "BLOQUEADO"
)

// stage labels the per-turn state machine for logging.
type stage string

const (
	stageValidating  stage = "validating"
	stageClassifying stage = "classifying"
	stageCompleting  stage = "completing"
	stageSanitizing  stage = "sanitizing"
	stageRecording   stage = "recording"
	stageDone        stage = "done"
	stageBlocked     stage = "blocked"
	stageFailed      stage = "failed"
)

// Completer produces assistant text from the ordered transcript.
type Completer interface {
	Complete(ctx context.Context, turns []domain.Turn, temperature float64, maxTokens int) (string, error)
	Model() string
}

// Classifier is the optional remote moderation service.
type Classifier interface {
	Analyze(ctx context.Context, text string) ([]domain.CategoryScore, error)
}

// Auditor schedules best-effort audit emission. Must never block or fail
// the caller.
type Auditor interface {
	Record(ex domain.Exchange)
}

// Result is the user-visible outcome of one submission: exactly one of
// assistant text, block text, failure text, or wait notice.
type Result struct {
	Outcome  domain.Outcome `json:"outcome"`
	Reply    string         `json:"reply"`
	Category string         `json:"category,omitempty"`
}

// Params collects the pipeline's collaborators and policy knobs.
type Params struct {
	Validator *validator.Validator
	Engine    *policy.Engine
	// Classifier is nil when the moderation service is not configured.
	// The absence is decided once at startup, not per call.
	Classifier Classifier
	Completer  Completer
	Sanitizer  *sanitizer.Sanitizer
	Sessions   *session.Store
	Auditor    Auditor
	Monitor    *monitor.Monitor
	Logger     *slog.Logger

	Cooldown          time.Duration
	ClassifierTimeout time.Duration
	CompletionTimeout time.Duration
	FailClosed        bool
	Temperature       float64
	MaxTokens         int
}

// Pipeline is the per-submission orchestrator.
type Pipeline struct {
	validator  *validator.Validator
	engine     *policy.Engine
	classifier Classifier
	completer  Completer
	sanitizer  *sanitizer.Sanitizer
	sessions   *session.Store
	auditor    Auditor
	monitor    *monitor.Monitor
	logger     *slog.Logger

	cooldown          time.Duration
	classifierTimeout time.Duration
	completionTimeout time.Duration
	failClosed        bool
	temperature       float64
	maxTokens         int

	now func() time.Time
}

// New creates a Pipeline from Params.
func New(p Params) *Pipeline {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		validator:         p.Validator,
		engine:            p.Engine,
		classifier:        p.Classifier,
		completer:         p.Completer,
		sanitizer:         p.Sanitizer,
		sessions:          p.Sessions,
		auditor:           p.Auditor,
		monitor:           p.Monitor,
		logger:            logger,
		cooldown:          p.Cooldown,
		classifierTimeout: p.ClassifierTimeout,
		completionTimeout: p.CompletionTimeout,
		failClosed:        p.FailClosed,
		temperature:       p.Temperature,
		maxTokens:         p.MaxTokens,
		now:               time.Now,
	}
}

// Submit processes one user submission end to end. It never returns an
// error to the surface: every failure path collapses into one of the four
// outcome texts.
func (p *Pipeline) Submit(ctx context.Context, sessionID, userID, text string) Result {
	sess := p.sessions.GetOrCreate(sessionID, userID)

	now := p.now()
	if !sess.TryAcquire(now, p.cooldown) {
		return Result{Outcome: domain.OutcomeRateLimited, Reply: waitMessage}
	}

	p.transition(sessionID, stageValidating)
	verdict := p.validator.Validate(text)
	if !verdict.Allowed && verdict.Reason != validator.ReasonBanned {
		// Local refusal with no topic category: empty or oversized input.
		p.transition(sessionID, stageBlocked)
		p.logger.Info("submission denied", "session_id", sessionID,
			"reason", string(verdict.Reason), "err", domain.ErrValidationDenied)
		p.monitor.Error("BLOQUEIO: " + string(verdict.Reason))
		p.audit(sess, text, blockedOutput, []string{"RISCO", string(verdict.Reason)})
		return Result{Outcome: domain.OutcomeBlocked, Reply: refusalMessage}
	}

	in := policy.Input{
		Validator: policy.ValidatorSignal{
			Matched:  !verdict.Allowed,
			Category: verdict.Category,
		},
		FailClosed: p.failClosed,
	}

	// The classifier is defense-in-depth: only consulted when the local
	// validator passed, and only when one is configured.
	if verdict.Allowed && p.classifier != nil {
		p.transition(sessionID, stageClassifying)
		cctx, cancel := context.WithTimeout(ctx, p.classifierTimeout)
		scores, err := p.classifier.Analyze(cctx, text)
		cancel()
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
			in.ClassifierDown = true
			p.monitor.Error(fmt.Sprintf("classificador indisponível (%v)", err))
			p.logger.Warn("classifier unavailable, screening degraded to local validator",
				"session_id", sessionID, "fail_closed", p.failClosed, "err", err)
		} else {
			in.Categories = toSignals(scores)
		}
	}

	decision, err := p.engine.Evaluate(ctx, in)
	if err != nil {
		p.transition(sessionID, stageFailed)
		p.logger.Error("policy evaluation failed", "session_id", sessionID, "err", err)
		p.monitor.Error("falha na avaliação de política")
		return Result{Outcome: domain.OutcomeFailed, Reply: failureMessage}
	}
	if decision.Blocked {
		p.transition(sessionID, stageBlocked)
		cause := domain.ErrClassificationFlagged
		if in.Validator.Matched {
			cause = domain.ErrValidationDenied
		}
		p.logger.Info("submission blocked", "session_id", sessionID,
			"category", decision.Category, "err", cause)
		p.monitor.Error("BLOQUEIO: " + decision.Category)
		p.audit(sess, text, blockedOutput, []string{"RISCO", decision.Category})
		return Result{
			Outcome:  domain.OutcomeBlocked,
			Reply:    blockedPrefix + decision.Category,
			Category: decision.Category,
		}
	}

	// The user turn is appended before the call: it was genuinely sent.
	// The assistant turn is appended only on success.
	if err := sess.Append(domain.RoleUser, text, now); err != nil {
		p.transition(sessionID, stageFailed)
		p.logger.Error("transcript append rejected", "session_id", sessionID, "err", err)
		return Result{Outcome: domain.OutcomeFailed, Reply: failureMessage}
	}

	p.transition(sessionID, stageCompleting)
	cctx, cancel := context.WithTimeout(ctx, p.completionTimeout)
	raw, err := p.completer.Complete(cctx, sess.History(), p.temperature, p.maxTokens)
	cancel()
	if err != nil {
		p.transition(sessionID, stageFailed)
		p.logger.Error("completion failed", "session_id", sessionID,
			"err", fmt.Errorf("%w: %v", domain.ErrCompletionFailed, err))
		p.monitor.Error("falha na geração")
		return Result{Outcome: domain.OutcomeFailed, Reply: failureMessage}
	}

	p.transition(sessionID, stageSanitizing)
	clean := p.sanitizer.Sanitize(raw)

	p.transition(sessionID, stageRecording)
	if err := sess.Append(domain.RoleAssistant, clean, p.now()); err != nil {
		p.transition(sessionID, stageFailed)
		p.logger.Error("transcript append rejected", "session_id", sessionID, "err", err)
		return Result{Outcome: domain.OutcomeFailed, Reply: failureMessage}
	}

	p.transition(sessionID, stageDone)
	p.monitor.Success("SUCESSO: resposta gerada")
	p.audit(sess, text, clean, []string{"SUCESSO"})
	return Result{Outcome: domain.OutcomeAnswered, Reply: clean}
}

// audit hands the exchange to the dispatcher; fire-and-forget.
func (p *Pipeline) audit(sess *session.Session, input, output string, tags []string) {
	if p.auditor == nil {
		return
	}
	p.auditor.Record(domain.Exchange{
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		Input:     input,
		Output:    output,
		Model:     p.completer.Model(),
		Tags:      tags,
	})
}

func (p *Pipeline) transition(sessionID string, s stage) {
	p.logger.Debug("pipeline stage", "session_id", sessionID, "stage", string(s))
}

func toSignals(scores []domain.CategoryScore) []policy.CategorySignal {
	out := make([]policy.CategorySignal, len(scores))
	for i, s := range scores {
		out[i] = policy.CategorySignal{Category: s.Category, Severity: s.Severity}
	}
	return out
}
