package vm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder is an observer that records events.
type recorder struct {
	NoOpObserver
	config  *ObserverConfig
	Steps   []StepEvent
	Calls   []CallEvent
	Returns []ReturnEvent
}

func (o *recorder) Config() ObserverConfig {
	if o.config != nil {
		return *o.config
	}
	return o.NoOpObserver.Config()
}

func (o *recorder) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return true
}

func (o *recorder) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *recorder) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

func TestObserverOnStep(t *testing.T) {
	obs := &recorder{}
	out := render(t, "{{ 1 + 2 }}", nil, WithObserver(obs))
	require.Equal(t, "3", out)
	require.NotEmpty(t, obs.Steps)
	for _, step := range obs.Steps {
		require.NotEmpty(t, step.OpcodeName)
		require.Equal(t, "main", step.Code)
		require.Equal(t, "test.html", step.Template)
		require.Equal(t, 1, step.FrameDepth)
	}
}

func TestObserverOnCallAndReturn(t *testing.T) {
	obs := &recorder{}
	source := "{% macro hi(name) %}hi {{ name }}{% endmacro %}\n{% call hi('Ann') %}"
	require.Equal(t, "\nhi Ann", render(t, source, nil, WithObserver(obs)))

	require.Len(t, obs.Calls, 2)
	require.Equal(t, "main", obs.Calls[0].Code)
	require.Equal(t, 1, obs.Calls[0].FrameDepth)
	require.Equal(t, "macro:hi", obs.Calls[1].Code)
	require.Equal(t, 2, obs.Calls[1].FrameDepth)
	require.Equal(t, 2, obs.Calls[1].Location.Line)

	require.Len(t, obs.Returns, 2)
	require.Equal(t, "macro:hi", obs.Returns[0].Code)
	require.Equal(t, 1, obs.Returns[0].FrameDepth)
	require.Equal(t, "main", obs.Returns[1].Code)
	require.Equal(t, 0, obs.Returns[1].FrameDepth)
}

func TestObserverHaltOnStep(t *testing.T) {
	obs := &haltAfter{limit: 3}
	_, err := newTemplate(t, "{{ 1 + 2 + 3 + 4 }}", WithObserver(obs)).Render(context.Background(), nil)
	require.ErrorIs(t, err, ErrHalted)
	require.Equal(t, 3, obs.steps)
}

type haltAfter struct {
	NoOpObserver
	limit int
	steps int
}

func (o *haltAfter) OnStep(StepEvent) bool {
	o.steps++
	return o.steps < o.limit
}

func TestObserverHaltOnCall(t *testing.T) {
	obs := &haltOnCall{}
	source := "a{% macro m() %}b{% endmacro %}{% call m() %}c"
	var out strings.Builder
	err := newTemplate(t, source, WithObserver(obs)).Display(context.Background(), &out, nil)
	require.ErrorIs(t, err, ErrHalted)
	require.Equal(t, "a", out.String())

	rendered, err := newTemplate(t, source, WithObserver(obs)).Render(context.Background(), nil)
	require.ErrorIs(t, err, ErrHalted)
	require.Equal(t, "", rendered)
}

type haltOnCall struct {
	NoOpObserver
}

func (haltOnCall) OnCall(event CallEvent) bool {
	return event.Code == "main"
}

func TestObserverStepModes(t *testing.T) {
	source := "{{ 1 }}\n{{ 2 }}\n{{ 3 }}"

	none := NewObserverConfig(StepNone)
	obs := &recorder{config: &none}
	render(t, source, nil, WithObserver(obs))
	require.Empty(t, obs.Steps)
	require.Len(t, obs.Calls, 1)

	lines := NewObserverConfig(StepOnLine)
	obs = &recorder{config: &lines}
	render(t, source, nil, WithObserver(obs))
	var seen []int
	for _, step := range obs.Steps {
		seen = append(seen, step.Location.Line)
	}
	require.Equal(t, []int{1, 2, 3}, seen)

	all := &recorder{}
	render(t, source, nil, WithObserver(all))
	sampled := ObserverConfig{StepMode: StepSampled, SampleInterval: 2}
	obs = &recorder{config: &sampled}
	render(t, source, nil, WithObserver(obs))
	require.Len(t, obs.Steps, len(all.Steps)/2)
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(ObserverConfig{StepMode: StepSampled})
	require.Equal(t, 1, cfg.SampleInterval)
}
