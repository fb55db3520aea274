package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ppiankov/assignparse/internal/llm"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = `Requesting Party
Insurance Company: Allstate
Handler: Jane Smith

Adjuster Information
Adjuster Name: Sarah Johnson
Adjuster Phone Number: 5551234567

Assignment Type
Wind [X]
Hail [ ]
`

// fakeStrategy returns a fixed record or error and counts calls
type fakeStrategy struct {
	id       string
	fallback string
	err      error
	calls    atomic.Int32
}

func (f *fakeStrategy) ID() string       { return f.id }
func (f *fakeStrategy) Fallback() string { return f.fallback }
func (f *fakeStrategy) Parse(ctx context.Context, text string) (*model.Record, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	rec := model.NewRecord()
	rec.AdditionalDetails = f.id
	return rec, nil
}

// fakeProvider replays responses in order
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *fakeProvider) Name() string                       { return "fake" }
func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }
func (p *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	i := p.calls
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", llm.ErrEmptyResponse
}

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func buildWith(t *testing.T, providers map[string]llm.Provider) *Registry {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.LocalLLM.Provider = ""
	reg, err := Build(cfg, Deps{Providers: providers})
	require.NoError(t, err)
	return reg
}

func TestBuild_DefaultRegistration(t *testing.T) {
	reg := buildWith(t, nil)

	assert.Equal(t, []string{RuleBased, Hybrid}, reg.IDs())
	assert.Contains(t, reg.Unavailable(), LLM)

	_, err := reg.Get(LLM)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConfiguration))
}

func TestRegistry_UnknownStrategy(t *testing.T) {
	reg := buildWith(t, nil)
	_, err := reg.Get("telepathy")
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
	assert.True(t, model.IsKind(err, model.KindConfiguration))
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry(&fakeStrategy{id: "a"}, &fakeStrategy{id: "a"})
	assert.Error(t, err)

	_, err = NewRegistry(&fakeStrategy{id: "a", fallback: "missing"})
	assert.Error(t, err)

	_, err = NewRegistry(&fakeStrategy{id: "a", fallback: "a"})
	assert.Error(t, err)
}

func TestRuleBased_Parse(t *testing.T) {
	reg := buildWith(t, nil)
	s, err := reg.Get(RuleBased)
	require.NoError(t, err)

	rec, err := s.Parse(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "Allstate", rec.RequestingParty.InsuranceCompany)
	assert.Equal(t, "(555) 123-4567", rec.AdjusterInformation.AdjusterPhoneNumber)
	assert.True(t, rec.AssignmentType.Wind)
	assert.False(t, rec.AssignmentType.Hail)
	assert.Empty(t, rec.Entities)
}

func TestHybrid_Parse(t *testing.T) {
	reg := buildWith(t, nil)
	s, err := reg.Get(Hybrid)
	require.NoError(t, err)
	assert.Equal(t, RuleBased, s.Fallback())

	text := email + "\nPolicy holder insured with State Farm per call notes.\n"
	rec, err := s.Parse(context.Background(), text)
	require.NoError(t, err)

	// Extracted values win over fuzzy matches; the default rule fills the email
	assert.Equal(t, "Allstate", rec.RequestingParty.InsuranceCompany)
	assert.Equal(t, "unknown@example.com", rec.AdjusterInformation.AdjusterEmail)
	assert.Equal(t, []string{"5551234567"}, rec.Entities["PHONE"])
	assert.Contains(t, rec.Entities["ORGANIZATION"], "Allstate")
}

func TestRunner_Success(t *testing.T) {
	reg := buildWith(t, nil)
	rec, trace, err := NewRunner(reg, nil).Run(context.Background(), RuleBased, email)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.NotEmpty(t, trace.RequestID)
	assert.Equal(t, []string{RuleBased}, trace.Strategies())
	id, state := trace.Final()
	assert.Equal(t, RuleBased, id)
	assert.Equal(t, StateSucceeded, state)
}

func TestRunner_FallbackOnValidationFailure(t *testing.T) {
	// The model answers with JSON that is missing required sections
	provider := &fakeProvider{responses: []string{"```json\n{\"RequestingParty\": {}}\n```"}}
	reg := buildWith(t, map[string]llm.Provider{LLM: provider})

	rec, trace, err := NewRunner(reg, nil).Run(context.Background(), LLM, email)
	require.NoError(t, err)
	assert.Equal(t, "Allstate", rec.RequestingParty.InsuranceCompany)
	assert.Equal(t, []string{LLM, RuleBased}, trace.Strategies())
	assert.Equal(t, 1, provider.calls)
}

func TestRunner_FallbackAtMostOnce(t *testing.T) {
	failure := model.ValidationError("test", "rejected")
	a := &fakeStrategy{id: "a", fallback: "b", err: failure}
	b := &fakeStrategy{id: "b", fallback: "c", err: failure}
	c := &fakeStrategy{id: "c"}
	reg, err := NewRegistry(a, b, c)
	require.NoError(t, err)

	_, trace, err := NewRunner(reg, nil).Run(context.Background(), "a", "text")
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, trace.Strategies())
	assert.Zero(t, c.calls.Load())
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRunner_NoFallbackDeclared(t *testing.T) {
	a := &fakeStrategy{id: "a", err: model.ValidationError("test", "rejected")}
	reg, err := NewRegistry(a)
	require.NoError(t, err)

	_, trace, err := NewRunner(reg, nil).Run(context.Background(), "a", "text")
	require.Error(t, err)
	_, state := trace.Final()
	assert.Equal(t, StateFailed, state)
}

func TestRunner_ConfigurationErrorDoesNotFallBack(t *testing.T) {
	a := &fakeStrategy{id: "a", fallback: "b", err: model.ConfigError("test", "bad", nil)}
	b := &fakeStrategy{id: "b"}
	reg, err := NewRegistry(a, b)
	require.NoError(t, err)

	_, _, err = NewRunner(reg, nil).Run(context.Background(), "a", "text")
	require.Error(t, err)
	assert.Zero(t, b.calls.Load())
}

func TestRunner_UnknownStrategy(t *testing.T) {
	reg := buildWith(t, nil)
	_, trace, err := NewRunner(reg, nil).Run(context.Background(), "nope", email)
	assert.ErrorIs(t, err, model.ErrUnknownStrategy)
	assert.Empty(t, trace.Strategies())
}

func validResponse(t *testing.T) string {
	t.Helper()
	rec := model.NewRecord()
	rec.RequestingParty.InsuranceCompany = "Geico"
	rec.Attachments = []string{"estimate.pdf", "not an attachment"}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	return "Here you go:\n" + string(b) + "\nThanks!"
}

func TestLLM_RetriesTransientErrors(t *testing.T) {
	transient := &llm.StatusError{Provider: "fake", StatusCode: 503, Message: "busy"}
	provider := &fakeProvider{
		errs:      []error{transient, transient},
		responses: []string{"", "", validResponse(t)},
	}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	rec, err := s.Parse(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, "Geico", rec.RequestingParty.InsuranceCompany)
	assert.Equal(t, []string{"estimate.pdf"}, rec.Attachments)
}

func TestLLM_RetryBounded(t *testing.T) {
	transient := &llm.StatusError{Provider: "fake", StatusCode: 500, Message: "down"}
	provider := &fakeProvider{errs: []error{transient, transient, transient, transient, transient}}
	s := NewLLM(LocalLLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	_, err := s.Parse(context.Background(), email)
	require.Error(t, err)
	assert.Equal(t, 3, provider.calls)
	assert.True(t, model.IsKind(err, model.KindCollaborator))
}

func TestLLM_PermanentErrorNotRetried(t *testing.T) {
	provider := &fakeProvider{errs: []error{&llm.StatusError{Provider: "fake", StatusCode: 401, Message: "bad key"}}}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	_, err := s.Parse(context.Background(), email)
	require.Error(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestLLM_NoJSONObject(t *testing.T) {
	provider := &fakeProvider{responses: []string{"Sorry, I cannot help with that."}}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	_, err := s.Parse(context.Background(), email)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.ErrorIs(t, err, model.ErrNoJSONObject)
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(ctx context.Context, key string) error {
	l.waits++
	return nil
}

func TestLLM_UsesLimiter(t *testing.T) {
	limiter := &countingLimiter{}
	provider := &fakeProvider{responses: []string{validResponse(t)}}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff), WithLimiter(limiter))

	_, err := s.Parse(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.waits)
}

func TestLLM_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &fakeProvider{errs: []error{context.Canceled}}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	_, err := s.Parse(ctx, email)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunner_SchemaInvalidModelResponseFallsBack(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		"```json\n{\"RequestingParty\":{\"InsuranceCompany\":\"Geico\"}}\n```",
	}}
	reg := buildWith(t, map[string]llm.Provider{LLM: provider})

	rec, trace, err := NewRunner(reg, nil).Run(context.Background(), LLM, email)
	require.NoError(t, err)
	assert.Equal(t, []string{LLM, RuleBased}, trace.Strategies())
	assert.Equal(t, 1, provider.calls)

	var failed *Step
	for i := range trace.Steps {
		if trace.Steps[i].Strategy == LLM && trace.Steps[i].State == StateFailed {
			failed = &trace.Steps[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Error, string(model.KindValidation))

	final, state := trace.Final()
	assert.Equal(t, RuleBased, final)
	assert.Equal(t, StateSucceeded, state)
	assert.Equal(t, "Allstate", rec.RequestingParty.InsuranceCompany)
}

func TestLLM_SchemaInvalidResponseIsValidationError(t *testing.T) {
	provider := &fakeProvider{responses: []string{"```json\n{\"AdditionalDetails\":\"x\"}\n```"}}
	s := NewLLM(LLM, provider, mustValidator(t), nil, nil, WithBackOff(zeroBackOff))

	_, err := s.Parse(context.Background(), email)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestBuild_RetryBoundPerStrategy(t *testing.T) {
	transient := &llm.StatusError{Provider: "fake", StatusCode: 503, Message: "busy"}
	many := []error{transient, transient, transient, transient, transient}
	local := &fakeProvider{errs: many}
	remote := &fakeProvider{errs: many}

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.LocalLLM.Provider = ""
	cfg.LocalLLM.MaxRetries = 1
	cfg.LLM.MaxRetries = 2
	reg, err := Build(cfg, Deps{
		Providers: map[string]llm.Provider{LocalLLM: local, LLM: remote},
		Retry: RetryConfig{
			MaxTries:        5,
			InitialInterval: time.Millisecond,
			Multiplier:      1,
			MaxInterval:     time.Millisecond,
		},
	})
	require.NoError(t, err)

	for _, id := range []string{LocalLLM, LLM} {
		s, err := reg.Get(id)
		require.NoError(t, err)
		_, err = s.Parse(context.Background(), email)
		require.Error(t, err)
	}
	assert.Equal(t, 1, local.calls)
	assert.Equal(t, 2, remote.calls)
}

func TestRetryFor(t *testing.T) {
	base := DefaultRetryConfig()
	assert.Equal(t, uint(3), retryFor(base, model.LLMConfig{}).MaxTries)
	assert.Equal(t, uint(7), retryFor(base, model.LLMConfig{MaxRetries: 7}).MaxTries)
	assert.Equal(t, base.InitialInterval, retryFor(base, model.LLMConfig{MaxRetries: 7}).InitialInterval)
}
