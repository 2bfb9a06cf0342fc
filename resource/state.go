// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

// Phase is the load phase of a resource
type Phase uint8

// Resource phases
const (
	Pending Phase = iota
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// State is the observable state of a resource. Err is set
// only when Phase is Failed.
type State struct {
	Phase Phase
	Err   error
}

// IsReady reports if the backend can be used.
func (s State) IsReady() bool {
	return s.Phase == Ready
}

func (s State) String() string {
	if s.Phase == Failed && s.Err != nil {
		return "failed(" + s.Err.Error() + ")"
	}
	return s.Phase.String()
}
