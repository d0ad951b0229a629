package app

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls []string
	args  []string
}

func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) More(ctx context.Context) error { f.calls = append(f.calls, "more"); return nil }
func (f *fakeExec) Search(ctx context.Context, query string) error {
	f.calls = append(f.calls, "search")
	f.args = append(f.args, query)
	return nil
}
func (f *fakeExec) ResetSearch(ctx context.Context) error {
	f.calls = append(f.calls, "reset")
	return nil
}
func (f *fakeExec) Profile(ctx context.Context, login string) error {
	f.calls = append(f.calls, "profile")
	f.args = append(f.args, login)
	return nil
}
func (f *fakeExec) Note(ctx context.Context, login, content string) error {
	f.calls = append(f.calls, "note")
	f.args = append(f.args, login, content)
	return nil
}
func (f *fakeExec) Avatar(ctx context.Context, login string) error {
	f.calls = append(f.calls, "avatar")
	f.args = append(f.args, login)
	return nil
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		out = append(out, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func TestRunREPL_DispatchAndArgs(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"list",
		"m",
		"search torval ds",
		"reset",
		"profile octocat",
		"note octocat remember the ship date",
		"avatar octocat",
		"frobnicate",
		"exit",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	require.Equal(t,
		[]string{"list", "more", "search", "reset", "profile", "note", "avatar"},
		exec.calls)
	assert.Equal(t, "torval ds", exec.args[0])
	assert.Equal(t, "octocat", exec.args[1])
	assert.Equal(t, "octocat", exec.args[2])
	assert.Equal(t, "remember the ship date", exec.args[3])
	assert.Equal(t, "octocat", exec.args[4])
}

func TestRunREPL_UsageOnMissingArgs(t *testing.T) {
	out := silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"search",
		"profile",
		"note octocat",
		"quit",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Usage: search <query>")
	assert.Contains(t, joined, "Usage: profile <login>")
	assert.Contains(t, joined, "Usage: note <login> <text>")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("list\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"list"}, exec.calls)
}
