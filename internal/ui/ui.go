// Package ui is the terminal rendition of the demo's presentation layer: instructions, loading state, the simulated
// device page, protocol traces and user prompts.
package ui

import (
	"context"
	"errors"
)

const DefaultDevicePage = "pages/loader.html"

var ErrInputClosed = errors.New("user input closed")

// Actions are the display operations steps and the runner may invoke.
type Actions interface {
	Instruction(text string)
	SetLoading(loading bool, text string)
	SetDevicePage(page string)
	Error(err error)
	Request(method, url string, body any)
	Response(url string, body any)
	ShowWebapp(url string)
	CloseWebapp()
	Disclaimer(visible bool, text string)
	ShowConfig(entries []ConfigEntry)
}

// Prompter collects input from the user driving the demo.
type Prompter interface {
	WaitForNext(ctx context.Context, label string) error
	Confirm(ctx context.Context, question string) (bool, error)
	Choose(ctx context.Context, question string, options []string) (string, error)
}

// ConfigEntry is one line of the configuration panel.
type ConfigEntry struct {
	Name    string
	Value   string
	Problem string
}
