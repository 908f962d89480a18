// Package runner drives one invocation: select due schedules, execute
// their jobs in declaration order, bind messages to recipients, and
// dispatch through the matching channel. Per-job failures are isolated;
// only configuration problems abort the run.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"pushpal/internal/channel"
	"pushpal/internal/config"
	"pushpal/internal/plugin"
	"pushpal/internal/push"
	"pushpal/pkg/logx"
)

// Options are the per-invocation knobs from the CLI.
type Options struct {
	// ScheduleID, when set, runs exactly that schedule regardless of time.
	ScheduleID string
	// DryRun executes plugins and resolves channels but skips the send.
	DryRun bool
}

// Report summarizes one run. Returned alongside nil error when the run
// itself completed, even if individual jobs failed.
type Report struct {
	Due        []string
	JobsRun    int
	JobsFailed int
	Delivered  int
	DryRun     int
	Skipped    int
}

type Runner struct {
	log      logx.Logger
	plugins  *plugin.Registry
	channels *channel.Registry
	limiter  *rate.Limiter
	now      func() time.Time
}

func New(log logx.Logger, plugins *plugin.Registry, channels *channel.Registry) *Runner {
	return &Runner{
		log:      log,
		plugins:  plugins,
		channels: channels,
		// Keep outbound sends polite; push APIs throttle bursts.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		now:     time.Now,
	}
}

// SetClock overrides the wall clock. Tests only.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// Run executes one invocation against an already-loaded config.
// A non-nil error means the run aborted before any delivery
// (validation failure or unknown explicit schedule id).
func (r *Runner) Run(ctx context.Context, cfg *config.Config, opts Options) (Report, error) {
	var rep Report

	if err := cfg.Validate(config.Registries{
		HasPlugin:  r.plugins.Has,
		HasChannel: r.channels.Has,
	}); err != nil {
		return rep, err
	}

	now := r.now().UTC()
	due, err := r.dueSchedules(cfg, now, opts.ScheduleID)
	if err != nil {
		return rep, err
	}
	if len(due) == 0 {
		r.log.Info("no schedule due; nothing to do",
			logx.Time("now", now),
			logx.Int("schedules", len(cfg.Schedules)))
		return rep, nil
	}
	for _, sch := range due {
		rep.Due = append(rep.Due, sch.ID)
	}

	log := r.log.With(logx.String("run_id", uuid.NewString()))
	if opts.DryRun {
		log.Info("dry-run mode: plugins execute, nothing is sent")
	}
	log.Info("running schedules", logx.Int("count", len(due)), logx.Any("ids", rep.Due))

	for _, sch := range due {
		for i, job := range sch.Jobs {
			jlog := log.With(
				logx.String("schedule", sch.ID),
				logx.Int("job", i),
				logx.String("plugin", job.PluginID),
				logx.String("recipient", job.RecipientID),
			)
			rep.JobsRun++
			if err := r.runJob(ctx, jlog, cfg, job, now, opts.DryRun, &rep); err != nil {
				rep.JobsFailed++
				jlog.Error("job failed", logx.Err(err))
			}
		}
	}

	log.Info("run finished",
		logx.Int("jobs", rep.JobsRun),
		logx.Int("failed", rep.JobsFailed),
		logx.Int("delivered", rep.Delivered),
		logx.Int("dry_run", rep.DryRun),
		logx.Int("skipped", rep.Skipped))
	return rep, nil
}

func (r *Runner) runJob(ctx context.Context, log logx.Logger, cfg *config.Config, job config.Job, now time.Time, dryRun bool, rep *Report) error {
	// Validation already proved these exist; a miss here is a
	// programming fault, not a user error.
	p, ok := r.plugins.Get(job.PluginID)
	if !ok {
		return fmt.Errorf("plugin %q vanished from registry", job.PluginID)
	}
	tpl, ok := cfg.PluginConfigs[job.ConfigRef]
	if !ok {
		return fmt.Errorf("plugin config %q vanished", job.ConfigRef)
	}
	// Resolve ${ENV} placeholders here so plugins stay free of ambient state.
	tpl, err := config.ExpandJSONValues(tpl)
	if err != nil {
		return push.Configf("plugin_configs."+job.ConfigRef, "expand placeholders: %v", err)
	}

	jctx := plugin.Context{
		Now:         now,
		RecipientID: job.RecipientID,
		Config:      tpl,
		Global:      cfg.Global,
	}
	start := time.Now()
	msgs, err := p.Run(ctx, jctx)
	if err != nil {
		return &push.PluginError{PluginID: job.PluginID, Err: err}
	}
	log.Debug("plugin produced messages",
		logx.Int("count", len(msgs)),
		logx.Duration("took", time.Since(start)))

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return &push.PluginError{PluginID: job.PluginID, Err: err}
		}
		if msg.TargetRecipient == "" {
			msg.TargetRecipient = job.RecipientID
		}

		rcpt, ok := cfg.Recipients[msg.TargetRecipient]
		if !ok {
			// Only reachable when a plugin addressed a recipient
			// explicitly; the job's own recipient is validated.
			log.Warn("message targets unknown recipient, skipping",
				logx.String("target", msg.TargetRecipient))
			rep.Skipped++
			continue
		}
		ch, ok := r.channels.Get(rcpt.Channel.Type)
		if !ok {
			return push.Configf("recipients."+msg.TargetRecipient+".channel.type",
				"no channel registered for type %q", rcpt.Channel.Type)
		}

		if dryRun {
			log.Info("dry-run: would deliver",
				logx.String("target", msg.TargetRecipient),
				logx.String("channel", ch.Type()),
				logx.String("title", msg.Title),
				logx.String("format", string(msg.Format)),
				logx.String("body", msg.Body))
			rep.DryRun++
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := ch.Send(ctx, msg, rcpt.Channel.Raw); err != nil {
			return err
		}
		rep.Delivered++
		log.Info("delivered",
			logx.String("target", msg.TargetRecipient),
			logx.String("channel", ch.Type()),
			logx.String("title", msg.Title))
	}
	return nil
}
