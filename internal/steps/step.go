// Package steps runs a flow as an ordered list of user-visible steps, pacing each one so the user can follow along.
package steps

import (
	"context"

	"github.com/stellar/anchor-demo/internal/ui"
)

// Step is one stage of a flow. Execute reads and fills the shared State.
type Step interface {
	Name() string
	Instruction() string
	// Action is the label of the control that starts this step.
	Action() string
	DevicePage() string
	// AutoStart steps run without waiting for the user.
	AutoStart() bool
	Execute(ctx context.Context, state *State, actions ui.Actions) error
}

// BaseStep carries the display metadata of a step. Concrete steps embed it and implement Execute.
type BaseStep struct {
	StepName        string
	StepInstruction string
	StepAction      string
	Page            string
	Auto            bool
}

func (s BaseStep) Name() string        { return s.StepName }
func (s BaseStep) Instruction() string { return s.StepInstruction }
func (s BaseStep) Action() string      { return s.StepAction }
func (s BaseStep) AutoStart() bool     { return s.Auto }

func (s BaseStep) DevicePage() string {
	if s.Page == "" {
		return ui.DefaultDevicePage
	}
	return s.Page
}

// FuncStep adapts a function into a Step.
type FuncStep struct {
	BaseStep
	Fn func(ctx context.Context, state *State, actions ui.Actions) error
}

func (s FuncStep) Execute(ctx context.Context, state *State, actions ui.Actions) error {
	if s.Fn == nil {
		return nil
	}
	return s.Fn(ctx, state, actions)
}
