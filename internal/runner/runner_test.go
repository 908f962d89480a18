package runner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpal/internal/channel"
	"pushpal/internal/config"
	"pushpal/internal/plugin"
	"pushpal/internal/push"
	"pushpal/pkg/logx"
)

type fakePlugin struct {
	id    string
	msgs  []push.Message
	err   error
	calls []plugin.Context
}

func (f *fakePlugin) ID() string { return f.id }

func (f *fakePlugin) Run(_ context.Context, job plugin.Context) ([]push.Message, error) {
	f.calls = append(f.calls, job)
	if f.err != nil {
		return nil, f.err
	}
	return f.msgs, nil
}

type sentCall struct {
	msg push.Message
	cfg json.RawMessage
}

type fakeChannel struct {
	typ     string
	failFor map[string]error // keyed by target recipient
	sent    []sentCall
}

func (f *fakeChannel) Type() string { return f.typ }

func (f *fakeChannel) Send(_ context.Context, msg push.Message, cfg json.RawMessage) error {
	if err := f.failFor[msg.TargetRecipient]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentCall{msg: msg, cfg: cfg})
	return nil
}

func textMsg(title string) push.Message {
	return push.Message{Title: title, Body: "body of " + title, Format: push.FormatText}
}

// testSetup wires a runner with fake plugins/channels and a frozen clock.
func testSetup(t *testing.T, ch *fakeChannel, plugins ...plugin.Plugin) *Runner {
	t.Helper()
	preg := plugin.NewRegistry()
	require.NoError(t, preg.Register(plugins...))
	creg := channel.NewRegistry()
	require.NoError(t, creg.Register(ch))

	r := New(logx.Nop(), preg, creg)
	r.SetClock(func() time.Time {
		return time.Date(2025, time.March, 3, 8, 0, 30, 0, time.UTC)
	})
	return r
}

func twoJobConfig() *config.Config {
	return &config.Config{
		Global: json.RawMessage(`{"locale":"en"}`),
		Recipients: map[string]config.Recipient{
			"alice": {Channel: config.ChannelConfig{Type: "fake", Raw: json.RawMessage(`{"type":"fake","who":"alice"}`)}},
			"bob":   {Channel: config.ChannelConfig{Type: "fake", Raw: json.RawMessage(`{"type":"fake","who":"bob"}`)}},
		},
		Schedules: []config.Schedule{{
			ID:   "morning",
			Cron: "0 8 * * *",
			Jobs: []config.Job{
				{RecipientID: "alice", PluginID: "first", ConfigRef: "empty"},
				{RecipientID: "bob", PluginID: "second", ConfigRef: "empty"},
			},
		}},
		PluginConfigs: map[string]json.RawMessage{"empty": json.RawMessage(`{}`)},
	}
}

func TestRunDeliversInDeclarationOrder(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	first := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	second := &fakePlugin{id: "second", msgs: []push.Message{textMsg("two")}}
	r := testSetup(t, ch, first, second)

	rep, err := r.Run(context.Background(), twoJobConfig(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"morning"}, rep.Due)
	assert.Equal(t, 2, rep.JobsRun)
	assert.Equal(t, 0, rep.JobsFailed)
	assert.Equal(t, 2, rep.Delivered)
	require.Len(t, ch.sent, 2)
	assert.Equal(t, "one", ch.sent[0].msg.Title)
	assert.Equal(t, "two", ch.sent[1].msg.Title)
}

func TestRunNothingDue(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	p := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	r := testSetup(t, ch, p, &fakePlugin{id: "second"})

	cfg := twoJobConfig()
	cfg.Schedules[0].Cron = "0 9 * * *" // clock is frozen at 08:00

	rep, err := r.Run(context.Background(), cfg, Options{})
	require.NoError(t, err, "an unmatched schedule is a normal outcome, not an error")
	assert.Empty(t, rep.Due)
	assert.Zero(t, rep.JobsRun)
	assert.Empty(t, p.calls)
	assert.Empty(t, ch.sent)
}

func TestExplicitScheduleBypassesMatching(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	p := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	r := testSetup(t, ch, p, &fakePlugin{id: "second"})

	cfg := twoJobConfig()
	cfg.Schedules[0].Cron = "0 0 1 1 *" // would never match the frozen clock

	rep, err := r.Run(context.Background(), cfg, Options{ScheduleID: "morning"})
	require.NoError(t, err)
	assert.Equal(t, []string{"morning"}, rep.Due)
	assert.Equal(t, 2, rep.JobsRun)
}

func TestExplicitUnknownScheduleIsFatal(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	p := &fakePlugin{id: "first"}
	r := testSetup(t, ch, p, &fakePlugin{id: "second"})

	_, err := r.Run(context.Background(), twoJobConfig(), Options{ScheduleID: "evening"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, push.ErrConfig))
	assert.Empty(t, p.calls, "no job may run when the named schedule does not exist")
}

func TestPluginFailureDoesNotAbortSiblingJobs(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	first := &fakePlugin{id: "first", err: errors.New("upstream exploded")}
	second := &fakePlugin{id: "second", msgs: []push.Message{textMsg("two")}}
	r := testSetup(t, ch, first, second)

	rep, err := r.Run(context.Background(), twoJobConfig(), Options{})
	require.NoError(t, err, "per-job failures must not fail the run")

	assert.Equal(t, 2, rep.JobsRun)
	assert.Equal(t, 1, rep.JobsFailed)
	assert.Equal(t, 1, rep.Delivered)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "two", ch.sent[0].msg.Title)
	assert.Len(t, second.calls, 1)
}

func TestDeliveryFailureDoesNotAbortSiblingJobs(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{
		typ:     "fake",
		failFor: map[string]error{"alice": &push.DeliveryError{Channel: "fake", Recipient: "alice", Err: errors.New("503")}},
	}
	first := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	second := &fakePlugin{id: "second", msgs: []push.Message{textMsg("two")}}
	r := testSetup(t, ch, first, second)

	rep, err := r.Run(context.Background(), twoJobConfig(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.JobsFailed)
	assert.Equal(t, 1, rep.Delivered)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "bob", ch.sent[0].msg.TargetRecipient)
}

func TestRecipientBinding(t *testing.T) {
	t.Parallel()
	unset := textMsg("for the job recipient")
	explicit := textMsg("for bob")
	explicit.TargetRecipient = "bob"

	ch := &fakeChannel{typ: "fake"}
	first := &fakePlugin{id: "first", msgs: []push.Message{unset, explicit}}
	second := &fakePlugin{id: "second"}
	r := testSetup(t, ch, first, second)

	_, err := r.Run(context.Background(), twoJobConfig(), Options{})
	require.NoError(t, err)

	require.Len(t, ch.sent, 2)
	// Unset target binds to the owning job's recipient.
	assert.Equal(t, "alice", ch.sent[0].msg.TargetRecipient)
	assert.Contains(t, string(ch.sent[0].cfg), `"who":"alice"`)
	// An explicit target wins over the job's recipient, and the send
	// uses that recipient's channel config.
	assert.Equal(t, "bob", ch.sent[1].msg.TargetRecipient)
	assert.Contains(t, string(ch.sent[1].cfg), `"who":"bob"`)
}

func TestUnknownExplicitTargetIsSkipped(t *testing.T) {
	t.Parallel()
	stray := textMsg("lost")
	stray.TargetRecipient = "nobody"

	ch := &fakeChannel{typ: "fake"}
	first := &fakePlugin{id: "first", msgs: []push.Message{stray, textMsg("kept")}}
	r := testSetup(t, ch, first, &fakePlugin{id: "second"})

	rep, err := r.Run(context.Background(), twoJobConfig(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "kept", ch.sent[0].msg.Title)
}

func TestDryRunSkipsOnlyTheSend(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	first := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	second := &fakePlugin{id: "second", msgs: []push.Message{textMsg("two")}}
	r := testSetup(t, ch, first, second)

	rep, err := r.Run(context.Background(), twoJobConfig(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Empty(t, ch.sent, "dry-run must never reach the transport")
	assert.Equal(t, 2, rep.DryRun)
	assert.Zero(t, rep.Delivered)
	// Steps 1-4 still ran: plugins were invoked with full contexts.
	require.Len(t, first.calls, 1)
	require.Len(t, second.calls, 1)
}

func TestInvalidConfigAbortsBeforeAnyJob(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{typ: "fake"}
	p := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	r := testSetup(t, ch, p, &fakePlugin{id: "second"})

	cfg := twoJobConfig()
	cfg.Schedules[0].Jobs[1].ConfigRef = "missing"

	_, err := r.Run(context.Background(), cfg, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, push.ErrConfig))
	assert.Empty(t, p.calls, "a half-trusted config must not run even its valid jobs")
	assert.Empty(t, ch.sent)
}

func TestPluginContextContents(t *testing.T) {
	first := &fakePlugin{id: "first", msgs: []push.Message{textMsg("one")}}
	ch := &fakeChannel{typ: "fake"}
	r := testSetup(t, ch, first, &fakePlugin{id: "second"})

	t.Setenv("PUSHPAL_RUNNER_TEST_KEY", "resolved-key")
	cfg := twoJobConfig()
	cfg.PluginConfigs["empty"] = json.RawMessage(`{"api_key":"${PUSHPAL_RUNNER_TEST_KEY}"}`)

	_, err := r.Run(context.Background(), cfg, Options{})
	require.NoError(t, err)

	require.Len(t, first.calls, 1)
	got := first.calls[0]
	assert.Equal(t, "alice", got.RecipientID)
	assert.Equal(t, time.Date(2025, time.March, 3, 8, 0, 30, 0, time.UTC), got.Now)
	assert.JSONEq(t, `{"locale":"en"}`, string(got.Global))
	// ${ENV} placeholders in the template are resolved by the runner,
	// not by the plugin.
	assert.JSONEq(t, `{"api_key":"resolved-key"}`, string(got.Config))
}
