// Package endpoint renders the endpoint-mode selector. The selector is a
// controlled component: the caller owns the current Mode and receives
// change requests through SetEndpoint.
package endpoint

// Mode is the upstream query strategy a caller may request.
type Mode string

const (
	Unified      Mode = "unified"
	Direct       Mode = "direct"
	Conversation Mode = "conversation"
)

const Placeholder = "Select endpoint"

type Option struct {
	Value Mode   `json:"value"`
	Label string `json:"label"`
}

var options = []Option{
	{Value: Unified, Label: "Unified Endpoint"},
	{Value: Direct, Label: "Direct Query"},
	{Value: Conversation, Label: "Conversation"},
}

// Options returns the closed option list in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Valid reports whether m is one of the three modes. The selector never
// calls it.
func (m Mode) Valid() bool {
	for _, o := range options {
		if o.Value == m {
			return true
		}
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

type Props struct {
	Endpoint    Mode
	SetEndpoint func(Mode)
}

type Item struct {
	Option
	Selected bool `json:"selected"`
}

// View is one render of the selector. It holds nothing but the props it
// was rendered with.
type View struct {
	props Props
}

func Selector(props Props) *View {
	return &View{props: props}
}

// Value is the current selection as owned by the caller.
func (v *View) Value() Mode {
	return v.props.Endpoint
}

func (v *View) Placeholder() string {
	return Placeholder
}

func (v *View) Items() []Item {
	items := make([]Item, len(options))
	for i, o := range options {
		items[i] = Item{Option: o, Selected: o.Value == v.props.Endpoint}
	}
	return items
}

// OnValueChange handles a selection event: value is cast to Mode and passed
// to SetEndpoint exactly once.
func (v *View) OnValueChange(value string) {
	if v.props.SetEndpoint == nil {
		return
	}
	v.props.SetEndpoint(Mode(value))
}
