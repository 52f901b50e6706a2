package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Console renders Actions as plain text lines and reads prompts line by line.
type Console struct {
	out io.Writer
	in  io.Reader

	mu          sync.Mutex
	linesOnce   sync.Once
	lines       chan string
	readErr     error
	devicePage  string
	disclaimer  bool
	webappOpen  bool
	traceBodies bool
}

var (
	_ Actions  = (*Console)(nil)
	_ Prompter = (*Console)(nil)
)

// NewConsole builds a console UI. When traceBodies is false, request and response bodies are omitted from the output.
func NewConsole(out io.Writer, in io.Reader, traceBodies bool) *Console {
	return &Console{out: out, in: in, traceBodies: traceBodies}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	//nolint:errcheck // nothing sensible to do if the terminal is gone
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Instruction(text string) {
	if text == "" {
		return
	}
	c.printf("==> %s", text)
}

func (c *Console) SetLoading(loading bool, text string) {
	switch {
	case loading && text != "":
		c.printf("... %s", text)
	case loading:
		c.printf("... working")
	case text != "":
		c.printf("[next: %s]", text)
	}
}

func (c *Console) SetDevicePage(page string) {
	if page == "" {
		page = DefaultDevicePage
	}
	c.mu.Lock()
	changed := c.devicePage != page
	c.devicePage = page
	c.mu.Unlock()
	if changed {
		c.printf("[device: %s]", page)
	}
}

// DevicePage returns the page currently shown on the simulated device.
func (c *Console) DevicePage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devicePage
}

func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	c.printf("ERROR: %v", err)
}

func (c *Console) Request(method, url string, body any) {
	c.printf("--> %s %s%s", method, url, c.renderBody(body))
}

func (c *Console) Response(url string, body any) {
	c.printf("<-- %s%s", url, c.renderBody(body))
}

func (c *Console) renderBody(body any) string {
	if !c.traceBodies || body == nil {
		return ""
	}
	if s, ok := body.(string); ok {
		return "\n" + s
	}
	b, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Sprintf("\n%v", body)
	}
	return "\n" + string(b)
}

func (c *Console) ShowWebapp(url string) {
	c.mu.Lock()
	c.webappOpen = true
	c.mu.Unlock()
	c.printf("Open the anchor's interactive flow in your browser and complete it:\n    %s", url)
}

func (c *Console) CloseWebapp() {
	c.mu.Lock()
	wasOpen := c.webappOpen
	c.webappOpen = false
	c.mu.Unlock()
	if wasOpen {
		c.printf("Interactive flow closed.")
	}
}

// Disclaimer prints the warning when it becomes visible; repeating the same state prints nothing.
func (c *Console) Disclaimer(visible bool, text string) {
	c.mu.Lock()
	changed := c.disclaimer != visible
	c.disclaimer = visible
	c.mu.Unlock()
	if visible && changed {
		c.printf("!!! %s", text)
	}
}

func (c *Console) ShowConfig(entries []ConfigEntry) {
	var sb strings.Builder
	sb.WriteString("Configuration:")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n    %-22s %s", e.Name, e.Value)
		if e.Problem != "" {
			fmt.Fprintf(&sb, "  <- %s", e.Problem)
		}
	}
	c.printf("%s", sb.String())
}

// readLine returns the next line typed by the user. A single goroutine owns the reader so that a canceled prompt does
// not lose the next line.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.linesOnce.Do(func() {
		c.lines = make(chan string)
		go func() {
			defer close(c.lines)
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for user input: %w", ctx.Err())
	case line, ok := <-c.lines:
		if !ok {
			c.mu.Lock()
			readErr := c.readErr
			c.mu.Unlock()
			if readErr != nil {
				return "", fmt.Errorf("reading user input: %w", readErr)
			}
			return "", ErrInputClosed
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *Console) WaitForNext(ctx context.Context, label string) error {
	if label == "" {
		label = "Next"
	}
	c.printf("Press enter to continue (%s)", label)
	_, err := c.readLine(ctx)
	return err
}

func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		c.printf("%s [y/n]", question)
		answer, err := c.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Choose accepts either the option's number or its exact text.
func (c *Console) Choose(ctx context.Context, question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from")
	}
	for {
		var sb strings.Builder
		sb.WriteString(question)
		for i, o := range options {
			fmt.Fprintf(&sb, "\n    %d) %s", i+1, o)
		}
		c.printf("%s", sb.String())

		answer, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(o, answer) {
				return o, nil
			}
		}
	}
}
