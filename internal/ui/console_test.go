package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleActions(t *testing.T) {
	out := &strings.Builder{}
	c := NewConsole(out, strings.NewReader(""), true)

	c.Instruction("Fetch the stellar.toml")
	c.Instruction("")
	c.SetDevicePage("")
	c.SetDevicePage(DefaultDevicePage)
	c.SetDevicePage("pages/confirm.html")
	c.SetLoading(true, "")
	c.SetLoading(false, "Start SEP-10")
	c.SetLoading(false, "")
	c.Request("GET", "https://testanchor.stellar.org/info", nil)
	c.Response("https://testanchor.stellar.org/info", map[string]any{"withdraw": map[string]any{}})
	c.Error(errors.New("boom"))
	c.Error(nil)

	got := out.String()
	assert.Contains(t, got, "==> Fetch the stellar.toml\n")
	assert.Equal(t, 1, strings.Count(got, "[device: pages/loader.html]"))
	assert.Contains(t, got, "[device: pages/confirm.html]")
	assert.Equal(t, "pages/confirm.html", c.DevicePage())
	assert.Contains(t, got, "... working\n")
	assert.Contains(t, got, "[next: Start SEP-10]\n")
	assert.Contains(t, got, "--> GET https://testanchor.stellar.org/info\n")
	assert.Contains(t, got, "<-- https://testanchor.stellar.org/info\n{\n  \"withdraw\": {}\n}\n")
	assert.Contains(t, got, "ERROR: boom\n")
	assert.Equal(t, 1, strings.Count(got, "ERROR"))
}

func TestConsoleWebappAndDisclaimer(t *testing.T) {
	out := &strings.Builder{}
	c := NewConsole(out, strings.NewReader(""), false)

	c.CloseWebapp()
	assert.NotContains(t, out.String(), "Interactive flow closed.")

	c.ShowWebapp("https://testanchor.stellar.org/interactive?id=1")
	c.CloseWebapp()
	assert.Contains(t, out.String(), "https://testanchor.stellar.org/interactive?id=1")
	assert.Contains(t, out.String(), "Interactive flow closed.")

	c.Disclaimer(false, "")
	c.Disclaimer(true, "real funds")
	c.Disclaimer(true, "real funds")
	assert.Equal(t, 1, strings.Count(out.String(), "!!! real funds"))

	c.ShowConfig([]ConfigEntry{{Name: "home-domain", Value: ""}, {Name: "asset-code", Value: "SRT", Problem: "required"}})
	assert.Contains(t, out.String(), "Configuration:")
	assert.Contains(t, out.String(), "<- required")
}

func TestConsoleTraceBodiesDisabled(t *testing.T) {
	out := &strings.Builder{}
	c := NewConsole(out, strings.NewReader(""), false)
	c.Response("https://a.com/info", map[string]any{"secret": "x"})
	assert.NotContains(t, out.String(), "secret")
}

func TestConsolePrompts(t *testing.T) {
	ctx := context.Background()

	t.Run("wait_for_next", func(t *testing.T) {
		out := &strings.Builder{}
		c := NewConsole(out, strings.NewReader("\n"), false)
		require.NoError(t, c.WaitForNext(ctx, "Get challenge"))
		assert.Contains(t, out.String(), "(Get challenge)")

		assert.ErrorIs(t, c.WaitForNext(ctx, ""), ErrInputClosed)
	})

	t.Run("confirm_retries_until_valid", func(t *testing.T) {
		c := NewConsole(&strings.Builder{}, strings.NewReader("maybe\nYES\nn\n"), false)
		ok, err := c.Confirm(ctx, "Send payment?")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Confirm(ctx, "Send payment?")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("choose_by_number_or_text", func(t *testing.T) {
		c := NewConsole(&strings.Builder{}, strings.NewReader("7\n2\nSTART-WITHDRAW\n"), false)
		options := []string{"start-withdraw", "start-deposit"}

		choice, err := c.Choose(ctx, "What do you want to do?", options)
		require.NoError(t, err)
		assert.Equal(t, "start-deposit", choice)

		choice, err = c.Choose(ctx, "What do you want to do?", options)
		require.NoError(t, err)
		assert.Equal(t, "start-withdraw", choice)
	})

	t.Run("choose_without_options", func(t *testing.T) {
		c := NewConsole(&strings.Builder{}, strings.NewReader(""), false)
		_, err := c.Choose(ctx, "?", nil)
		assert.EqualError(t, err, "no options to choose from")
	})

	t.Run("line_too_long", func(t *testing.T) {
		c := NewConsole(&strings.Builder{}, strings.NewReader(strings.Repeat("a", bufio.MaxScanTokenSize+1)+"\n"), false)
		err := c.WaitForNext(ctx, "")
		require.ErrorIs(t, err, bufio.ErrTooLong)
		assert.NotErrorIs(t, err, ErrInputClosed)
		assert.ErrorContains(t, err, "reading user input")
	})

	t.Run("read_error", func(t *testing.T) {
		readErr := errors.New("terminal detached")
		c := NewConsole(&strings.Builder{}, io.MultiReader(strings.NewReader("y\n"), failingReader{err: readErr}), false)
		ok, err := c.Confirm(ctx, "Send payment?")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = c.Confirm(ctx, "Send payment?")
		assert.ErrorIs(t, err, readErr)
	})

	t.Run("canceled_context", func(t *testing.T) {
		blocked := blockingReader{}
		c := NewConsole(&strings.Builder{}, blocked, false)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := c.WaitForNext(ctx, "")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

type failingReader struct {
	err error
}

func (r failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Instruction("hi")
	r.SetLoading(true, "Finished")
	r.Error(errors.New("x"))
	assert.Equal(t, []string{"instruction:hi", "loading:true:Finished", "error:x"}, r.Snapshot())
}
