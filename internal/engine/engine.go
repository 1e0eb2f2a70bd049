package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"watersafe/internal/config"
	"watersafe/internal/letter"
	"watersafe/internal/letters"
	"watersafe/internal/mailer"
	"watersafe/internal/metrics"
	"watersafe/internal/model"
	"watersafe/internal/publish"
	"watersafe/internal/storage"
)

var (
	ErrTemplateNotFound = errors.New("letter template not found")
	ErrEntityNotFound   = errors.New("violation or task not found")
	ErrLetterNotFound   = errors.New("letter not found")
	ErrInvalidRecipient = errors.New("recipient email address is invalid")
)

// Renderer produces the document for one letter. The engine never looks
// inside the returned bytes.
type Renderer interface {
	Render(ctx context.Context, req letter.Request) (model.Document, error)
}

// Deps are the collaborators of an Engine. Only Renderer is required.
type Deps struct {
	Logger     *slog.Logger
	Renderer   Renderer
	Summaries  *metrics.Store
	Collectors *metrics.Collectors
	Store      storage.Store
	Publisher  publish.Publisher
	Mailer     mailer.Mailer
	Clock      func() time.Time
}

type Engine struct {
	logger     *slog.Logger
	renderer   Renderer
	summaries  *metrics.Store
	collectors *metrics.Collectors
	store      storage.Store
	publisher  publish.Publisher
	mailer     mailer.Mailer
	clock      func() time.Time
	cfg        atomic.Value
}

func NewEngine(cfg *config.Config, deps Deps) *Engine {
	if deps.Renderer == nil {
		deps.Renderer = letter.NewPDFRenderer()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	e := &Engine{
		logger:     deps.Logger,
		renderer:   deps.Renderer,
		summaries:  deps.Summaries,
		collectors: deps.Collectors,
		store:      deps.Store,
		publisher:  deps.Publisher,
		mailer:     deps.Mailer,
		clock:      deps.Clock,
	}
	e.cfg.Store(cfg)
	return e
}

func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg.Store(cfg)
}

func (e *Engine) config() *config.Config {
	if v := e.cfg.Load(); v != nil {
		if cfg, ok := v.(*config.Config); ok && cfg != nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}

func (e *Engine) deriveOptions() DeriveOptions {
	cfg := e.config()
	return DeriveOptions{FallbackDueDate: cfg.Tasks.FallbackDueDate, DueSoonDays: cfg.Tasks.DueSoonDays}
}

func (e *Engine) classifyOptions() ClassifyOptions {
	return ClassifyOptions{AnnualOverdueDays: e.config().Letters.AnnualOverdueDays}
}

// Tasks derives the system's task list against the current wall clock.
func (e *Engine) Tasks(sys model.WaterSystem) []model.ComplianceTask {
	tasks := DeriveTasks(sys.Violations, sys.Events, e.clock(), e.deriveOptions())
	if e.collectors != nil {
		e.collectors.Derivations.Inc()
	}
	return tasks
}

// Summary derives tasks, counts them, and records the result per system.
func (e *Engine) Summary(session *letters.Store, sys model.WaterSystem) model.TaskSummary {
	tasks := e.Tasks(sys)
	count := 0
	if session != nil {
		count = len(session.ForSystem(sys.PWSID))
	}
	sum := Summarize(sys.PWSID, tasks, count)
	if e.summaries != nil {
		e.summaries.Update(sum)
	}
	if e.collectors != nil {
		g := e.collectors.TasksByStatus
		g.WithLabelValues(sys.PWSID, string(model.StatusOnTrack)).Set(float64(sum.OnTrack))
		g.WithLabelValues(sys.PWSID, string(model.StatusOverdue)).Set(float64(sum.Overdue))
		g.WithLabelValues(sys.PWSID, string(model.StatusUpcoming)).Set(float64(sum.Upcoming))
		g.WithLabelValues(sys.PWSID, string(model.StatusDueSoon)).Set(float64(sum.DueSoon))
		g.WithLabelValues(sys.PWSID, string(model.StatusCompleted)).Set(float64(sum.Completed))
	}
	return sum
}

// Candidates previews what AutoGenerate would produce for this session.
func (e *Engine) Candidates(session *letters.Store, sys model.WaterSystem) []Assignment {
	tasks := e.Tasks(sys)
	return Classify(tasks, sys.Violations, generatedSet(session), e.classifyOptions())
}

// Failure is one candidate whose letter could not be produced.
type Failure struct {
	Key        string `json:"key"`
	TemplateID string `json:"template_id"`
	Error      string `json:"error"`
}

type Report struct {
	Generated []model.Letter `json:"generated"`
	Skipped   []string       `json:"skipped,omitempty"`
	Failures  []Failure      `json:"failures,omitempty"`
}

// AutoGenerate renders a letter for every classified candidate, one at a
// time and in tier order. A failed render is reported and the loop moves on.
// Concurrent calls on the same session run one after the other.
func (e *Engine) AutoGenerate(ctx context.Context, session *letters.Store, sys model.WaterSystem) Report {
	report := Report{Generated: make([]model.Letter, 0)}
	if session != nil {
		defer session.BeginGeneration()()
	}
	for _, a := range e.Candidates(session, sys) {
		tpl, ok := letter.Lookup(a.TemplateID)
		if !ok {
			report.Failures = append(report.Failures, Failure{Key: a.Key, TemplateID: a.TemplateID, Error: ErrTemplateNotFound.Error()})
			continue
		}
		l, created, err := e.generate(ctx, session, sys, tpl, a.Key, a.Violation, a.Task)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Key: a.Key, TemplateID: a.TemplateID, Error: err.Error()})
			continue
		}
		if !created {
			report.Skipped = append(report.Skipped, a.Key)
			continue
		}
		report.Generated = append(report.Generated, l)
	}
	if e.logger != nil {
		e.logger.Info("auto generation finished",
			"pwsid", sys.PWSID,
			"generated", len(report.Generated),
			"skipped", len(report.Skipped),
			"failed", len(report.Failures),
		)
	}
	return report
}

// GenerateRequest asks for one letter. ViolationID and TaskID are optional
// and mutually exclusive; without either the letter is a manual one and is
// never deduplicated.
type GenerateRequest struct {
	TemplateID  string `json:"template_id"`
	ViolationID string `json:"violation_id,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
}

// Generate returns the session's existing letter for the same violation or
// task when there is one (created=false), otherwise renders a new one.
func (e *Engine) Generate(ctx context.Context, session *letters.Store, sys model.WaterSystem, req GenerateRequest) (model.Letter, bool, error) {
	tpl, ok := letter.Lookup(req.TemplateID)
	if !ok {
		return model.Letter{}, false, fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplateID)
	}
	if session != nil {
		defer session.BeginGeneration()()
	}
	switch {
	case req.ViolationID != "":
		for i := range sys.Violations {
			if sys.Violations[i].ViolationID == req.ViolationID {
				v := sys.Violations[i]
				return e.generate(ctx, session, sys, tpl, ViolationEntityKey(v), &v, nil)
			}
		}
		return model.Letter{}, false, fmt.Errorf("%w: violation %s", ErrEntityNotFound, req.ViolationID)
	case req.TaskID != "":
		for _, t := range e.Tasks(sys) {
			if t.ID == req.TaskID {
				task := t
				return e.generate(ctx, session, sys, tpl, TaskEntityKey(task), nil, &task)
			}
		}
		return model.Letter{}, false, fmt.Errorf("%w: task %s", ErrEntityNotFound, req.TaskID)
	default:
		return e.generate(ctx, session, sys, tpl, "", nil, nil)
	}
}

func (e *Engine) generate(ctx context.Context, session *letters.Store, sys model.WaterSystem, tpl letter.Template, key string, v *model.ViolationRecord, t *model.ComplianceTask) (model.Letter, bool, error) {
	if key != "" && session != nil {
		if existing, ok := session.Lookup(key); ok {
			if e.collectors != nil {
				e.collectors.DuplicateSkips.Inc()
			}
			if e.logger != nil {
				e.logger.Debug("letter already generated", "pwsid", sys.PWSID, "key", key, "letter_id", existing.ID)
			}
			return existing, false, nil
		}
	}

	cfg := e.config()
	recipients := sys.PopulationServed
	if recipients <= 0 {
		recipients = cfg.Letters.DefaultRecipients
	}
	now := e.clock().UTC()
	doc, err := e.renderer.Render(ctx, letter.Request{
		Template:       tpl,
		System:         sys,
		Violation:      v,
		Task:           t,
		RecipientCount: recipients,
		Date:           now,
	})
	if err != nil {
		if e.collectors != nil {
			e.collectors.LetterFailures.WithLabelValues(tpl.ID).Inc()
		}
		if e.logger != nil {
			e.logger.Warn("letter render failed", "pwsid", sys.PWSID, "template_id", tpl.ID, "key", key, "err", err)
		}
		return model.Letter{}, false, fmt.Errorf("render %s: %w", tpl.ID, err)
	}

	l := model.Letter{
		ID:             "letter-" + uuid.NewString(),
		TemplateID:     tpl.ID,
		Tier:           tpl.Tier,
		SystemID:       sys.PWSID,
		SystemName:     sys.Name,
		EntityKey:      key,
		GeneratedAt:    now,
		Status:         model.LetterGenerated,
		RecipientCount: recipients,
		DueDate:        now.Add(tpl.Tier.SLA()),
		Document:       doc,
	}
	if v != nil {
		l.ViolationID = v.ViolationID
	}
	if t != nil {
		l.TaskID = t.ID
	}
	if session != nil {
		session.Add(l)
	}
	e.archive(ctx, l)
	if e.collectors != nil {
		e.collectors.LettersGenerated.WithLabelValues(tpl.ID).Inc()
	}
	if e.logger != nil {
		e.logger.Info("letter generated",
			"pwsid", sys.PWSID,
			"letter_id", l.ID,
			"template_id", l.TemplateID,
			"key", key,
			"recipients", recipients,
		)
	}
	return l, true, nil
}

// archive hands the letter to the optional store and publisher. Their
// failures are logged and never undo the generation.
func (e *Engine) archive(ctx context.Context, l model.Letter) {
	if e.store != nil {
		if err := e.store.SaveLetter(ctx, l); err != nil && e.logger != nil {
			e.logger.Warn("letter archive failed", "letter_id", l.ID, "err", err)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishLetter(ctx, l); err != nil && e.logger != nil {
			e.logger.Warn("letter publish failed", "letter_id", l.ID, "err", err)
		}
	}
}

// MarkSent emails a notice for the letter and flips it to sent. A mail
// failure leaves the letter untouched so the caller can retry.
func (e *Engine) MarkSent(ctx context.Context, session *letters.Store, letterID, to string) (model.Letter, error) {
	if session == nil {
		return model.Letter{}, ErrLetterNotFound
	}
	l, ok := session.Get(letterID)
	if !ok {
		return model.Letter{}, fmt.Errorf("%w: %s", ErrLetterNotFound, letterID)
	}
	if !mailer.ValidAddress(strings.TrimSpace(to)) {
		return model.Letter{}, ErrInvalidRecipient
	}
	if e.mailer == nil {
		return model.Letter{}, mailer.ErrDisabled
	}
	msg := mailer.Message{
		To:      strings.TrimSpace(to),
		Subject: "Water System Notification - " + l.SystemName,
		Body: fmt.Sprintf("Dear Customer,\n\nPlease find the latest water system notification for %s (%s).\n\nBest regards,\n%s",
			l.SystemName, l.Document.Name, l.SystemName),
	}
	if err := e.mailer.Send(ctx, msg); err != nil {
		if e.logger != nil {
			e.logger.Warn("letter send failed", "letter_id", l.ID, "err", err)
		}
		return model.Letter{}, err
	}
	l.Status = model.LetterSent
	l.SentAt = e.clock().UTC()
	session.Update(l)
	if e.publisher != nil {
		if err := e.publisher.PublishLetter(ctx, l); err != nil && e.logger != nil {
			e.logger.Warn("letter publish failed", "letter_id", l.ID, "err", err)
		}
	}
	return l, nil
}

func generatedSet(session *letters.Store) Generated {
	if session == nil {
		return nil
	}
	return session
}
