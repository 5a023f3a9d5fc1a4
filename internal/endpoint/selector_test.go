package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := Options()

	require.Len(t, opts, 3)
	assert.Equal(t, Option{Value: Unified, Label: "Unified Endpoint"}, opts[0])
	assert.Equal(t, Option{Value: Direct, Label: "Direct Query"}, opts[1])
	assert.Equal(t, Option{Value: Conversation, Label: "Conversation"}, opts[2])

	opts[0].Label = "changed"
	assert.Equal(t, "Unified Endpoint", Options()[0].Label)
}

func TestSelector_OnValueChangeInvokesCallbackOnce(t *testing.T) {
	for _, mode := range []Mode{Unified, Direct, Conversation} {
		t.Run(string(mode), func(t *testing.T) {
			var received []Mode
			view := Selector(Props{
				Endpoint:    Unified,
				SetEndpoint: func(m Mode) { received = append(received, m) },
			})

			view.OnValueChange(string(mode))

			assert.Equal(t, []Mode{mode}, received)
		})
	}
}

func TestSelector_IsControlled(t *testing.T) {
	current := Direct
	props := Props{
		Endpoint:    current,
		SetEndpoint: func(m Mode) { current = m },
	}
	view := Selector(props)

	view.OnValueChange(string(Conversation))

	// the rendered view keeps showing its props until the caller re-renders
	assert.Equal(t, Direct, view.Value())
	assert.Equal(t, Conversation, current)

	rerendered := Selector(Props{Endpoint: current, SetEndpoint: props.SetEndpoint})
	assert.Equal(t, Conversation, rerendered.Value())
}

func TestSelector_Items(t *testing.T) {
	view := Selector(Props{Endpoint: Direct})

	items := view.Items()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, item.Value == Direct, item.Selected, string(item.Value))
	}
	assert.Equal(t, Placeholder, view.Placeholder())
}

func TestSelector_NoValueSelected(t *testing.T) {
	view := Selector(Props{})

	assert.Equal(t, Mode(""), view.Value())
	for _, item := range view.Items() {
		assert.False(t, item.Selected)
	}
	assert.NotPanics(t, func() { view.OnValueChange("direct") })
}

func TestMode_Valid(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{Unified, true},
		{Direct, true},
		{Conversation, true},
		{"", false},
		{"Unified", false},
		{"sideways", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.Valid(), string(tt.mode))
	}
}
