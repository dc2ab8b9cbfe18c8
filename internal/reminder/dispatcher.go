package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/metrics"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/store"
	"github.com/phmhse/csmstrack/internal/telegraph"
)

// Outcome is what happened to one candidate during a run.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped" // already claimed by an earlier run
	OutcomeFailed  Outcome = "failed"
	OutcomeDryRun  Outcome = "dry-run"
)

// Dispatch records one candidate's outcome.
type Dispatch struct {
	Candidate
	Key       string  `json:"key"`
	Outcome   Outcome `json:"outcome"`
	MessageID string  `json:"message_id,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// RunSummary is the result of one Dispatcher run.
type RunSummary struct {
	RunAt       time.Time    `json:"run_at"`
	DryRun      bool         `json:"dry_run"`
	Dispatches  []Dispatch   `json:"dispatches"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Sent        int          `json:"sent"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
}

// Digest converts the summary for chat notifiers.
func (s RunSummary) Digest() telegraph.Digest {
	d := telegraph.Digest{
		RunAt:   s.RunAt,
		DryRun:  s.DryRun,
		Sent:    s.Sent,
		Skipped: s.Skipped,
		Failed:  s.Failed,
		Invalid: len(s.Diagnostics),
	}
	for _, x := range s.Dispatches {
		d.Items = append(d.Items, telegraph.DigestItem{
			Record:  fmt.Sprintf("%s %s", x.RecordType, x.RecordID),
			Reason:  x.Reason,
			To:      strings.Join(x.Recipients, ", "),
			Outcome: string(x.Outcome),
		})
	}
	return d
}

// Dispatcher runs the evaluator against the store and sends each due
// reminder at most once per idempotency key.
type Dispatcher struct {
	DB        *gorm.DB
	Sender    mailer.Sender
	Marks     MarkStore
	Notifiers []telegraph.Notifier
	Logger    *zap.Logger
	Calendar  status.Calendar
	Options   Options
	Period    Period
	Timeout   time.Duration    // per email send; zero means none
	Now       func() time.Time // defaults to time.Now
}

// Preview evaluates without claiming or sending anything.
func (d *Dispatcher) Preview(ctx context.Context) (Result, error) {
	return d.evaluate(ctx, store.Scope{})
}

func (d *Dispatcher) evaluate(ctx context.Context, sc store.Scope) (Result, error) {
	snap, err := store.LoadSnapshot(ctx, d.DB, sc)
	if err != nil {
		return Result{}, fmt.Errorf("reminder: preview: %w", err)
	}
	return Evaluate(Input{
		Projects:  snap.Projects,
		Tasks:     snap.Tasks,
		Schedules: snap.Schedules,
		Now:       d.now(),
		Calendar:  d.Calendar,
	}, d.Options), nil
}

// Run performs one trigger pass. With dryRun nothing is claimed or sent.
//
// A mark store failure aborts the run. A send failure releases the claim,
// is counted, and the run continues; the returned error then wraps
// ErrUpstreamUnavailable alongside the full summary.
func (d *Dispatcher) Run(ctx context.Context, dryRun bool) (RunSummary, error) {
	return d.run(ctx, store.Scope{}, dryRun)
}

// RunProject sends the reminders currently due for one project, such as a
// rig-down that is already close when the project is created. Claims are
// shared with Run, so the next periodic pass does not repeat them.
func (d *Dispatcher) RunProject(ctx context.Context, projectID string) (RunSummary, error) {
	return d.run(ctx, store.Scope{ProjectID: projectID}, false)
}

func (d *Dispatcher) run(ctx context.Context, sc store.Scope, dryRun bool) (RunSummary, error) {
	log := d.logger()
	now := d.now()
	sum := RunSummary{RunAt: now, DryRun: dryRun, Dispatches: []Dispatch{}}

	res, err := d.evaluate(ctx, sc)
	if err != nil {
		return sum, err
	}
	sum.Diagnostics = res.Diagnostics
	if len(res.Diagnostics) > 0 {
		metrics.InvalidRecords.WithLabelValues("reminder").Add(float64(len(res.Diagnostics)))
		for _, dg := range res.Diagnostics {
			log.Warn("record skipped",
				zap.String("record_type", string(dg.RecordType)),
				zap.String("record_id", dg.RecordID),
				zap.String("field", dg.Field),
				zap.String("reason", dg.Message))
		}
	}

	day := d.Calendar.FormatDate(now)
	var sendErrs []error
	for _, c := range res.Candidates {
		metrics.ReminderCandidates.WithLabelValues(string(c.RecordType)).Inc()
		x := Dispatch{Candidate: c, Key: IdempotencyKey(c, d.Period, day)}

		if dryRun {
			x.Outcome = OutcomeDryRun
			sum.Dispatches = append(sum.Dispatches, x)
			metrics.RecordReminderOutcome(string(x.Outcome))
			continue
		}

		won, err := d.Marks.Claim(ctx, x.Key, c, now)
		if err != nil {
			return sum, fmt.Errorf("reminder: run: %w", err)
		}
		if !won {
			x.Outcome = OutcomeSkipped
			sum.Skipped++
		} else if id, err := d.send(ctx, c); err != nil {
			x.Outcome = OutcomeFailed
			x.Error = err.Error()
			sum.Failed++
			sendErrs = append(sendErrs, err)
			log.Error("reminder send failed", zap.String("key", x.Key), zap.Error(err))
			if rerr := d.Marks.Release(ctx, x.Key); rerr != nil {
				log.Error("release mark failed", zap.String("key", x.Key), zap.Error(rerr))
			}
		} else {
			x.Outcome = OutcomeSent
			x.MessageID = id
			sum.Sent++
			log.Info("reminder sent",
				zap.String("key", x.Key),
				zap.Strings("to", c.Recipients),
				zap.String("message_id", id))
		}
		metrics.RecordReminderOutcome(string(x.Outcome))
		sum.Dispatches = append(sum.Dispatches, x)
	}

	if digest := sum.Digest(); !digest.Empty() {
		if err := telegraph.Broadcast(ctx, d.Notifiers, digest); err != nil {
			log.Warn("digest broadcast failed", zap.Error(err))
		}
	}

	log.Info("reminder run complete",
		zap.Bool("dry_run", dryRun),
		zap.String("project", sc.ProjectID),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("sent", sum.Sent),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("invalid", len(res.Diagnostics)))

	if len(sendErrs) > 0 {
		return sum, fmt.Errorf("reminder: run: %d of %d sends failed: %w",
			len(sendErrs), len(res.Candidates), errors.Join(sendErrs...))
	}
	return sum, nil
}

func (d *Dispatcher) send(ctx context.Context, c Candidate) (string, error) {
	msg, err := Compose(c)
	if err != nil {
		return "", err
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	id, err := d.Sender.Send(ctx, msg)
	if err != nil && !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		err = apperr.Upstream("send reminder", err)
	}
	return id, err
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}
