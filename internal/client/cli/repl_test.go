package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChatter struct {
	sent      []string
	forgotten int
	sendErr   error
}

func (f *fakeChatter) Send(ctx context.Context, text string) (string, error) {
	f.sent = append(f.sent, text)
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "echo: " + text, nil
}

func (f *fakeChatter) Forget(ctx context.Context) error {
	f.forgotten++
	return nil
}

func scan(lines ...string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestRunREPL_MessagesAndExit(t *testing.T) {
	f := &fakeChatter{}
	var out bytes.Buffer

	runREPL(context.Background(), f, scan("", "Where is the venue?", "/help", "/nope", "/exit", "never sent"), &out, lightTheme)

	assert.Equal(t, []string{"Where is the venue?"}, f.sent)
	assert.Contains(t, out.String(), "echo: Where is the venue?")
	assert.Contains(t, out.String(), "/forget, /exit")
	assert.Contains(t, out.String(), "Unknown command: /nope")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_Forget(t *testing.T) {
	f := &fakeChatter{}
	var out bytes.Buffer

	runREPL(context.Background(), f, scan("/forget", "hello"), &out, lightTheme)

	assert.Equal(t, 1, f.forgotten)
	assert.Empty(t, f.sent, "the loop ends after /forget")
}

func TestRunREPL_SendErrorKeepsGoing(t *testing.T) {
	f := &fakeChatter{sendErr: errors.New("offline")}
	var out bytes.Buffer

	runREPL(context.Background(), f, scan("one", "two"), &out, lightTheme)

	assert.Equal(t, []string{"one", "two"}, f.sent)
	assert.Equal(t, 2, strings.Count(out.String(), "Message not sent: offline"))
}
