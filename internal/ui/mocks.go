package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockPrompter struct {
	mock.Mock
}

var _ Prompter = (*MockPrompter)(nil)

func (m *MockPrompter) WaitForNext(ctx context.Context, label string) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	args := m.Called(ctx, question)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) Choose(ctx context.Context, question string, options []string) (string, error) {
	args := m.Called(ctx, question, options)
	return args.String(0), args.Error(1)
}

// Recorder keeps every Actions call as a formatted event, for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []string
}

var _ Actions = (*Recorder)(nil)

func (r *Recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

// Snapshot returns a copy of the recorded events.
func (r *Recorder) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Events...)
}

func (r *Recorder) Instruction(text string)              { r.record("instruction:%s", text) }
func (r *Recorder) SetLoading(loading bool, text string) { r.record("loading:%t:%s", loading, text) }
func (r *Recorder) SetDevicePage(page string)            { r.record("device:%s", page) }
func (r *Recorder) Error(err error)                      { r.record("error:%v", err) }
func (r *Recorder) Request(method, url string, _ any)    { r.record("request:%s %s", method, url) }
func (r *Recorder) Response(url string, _ any)           { r.record("response:%s", url) }
func (r *Recorder) ShowWebapp(url string)                { r.record("webapp:%s", url) }
func (r *Recorder) CloseWebapp()                         { r.record("webapp:closed") }
func (r *Recorder) Disclaimer(visible bool, text string) {
	r.record("disclaimer:%t:%s", visible, text)
}
func (r *Recorder) ShowConfig(entries []ConfigEntry) { r.record("config:%d", len(entries)) }
