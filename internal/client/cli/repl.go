package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// chatter is the minimal surface the chat REPL needs. The real App satisfies
// it; tests can provide a lightweight stub.
type chatter interface {
	Send(ctx context.Context, text string) (string, error)
	Forget(ctx context.Context) error
}

// runREPL reads guest messages line by line and prints the assistant's
// replies. The loop exits on EOF, on "/exit" or "/quit", and after "/forget".
//
// Commands
//
//	/help            show available commands
//	/forget          forget the remembered guest on this device ("Not you?")
//	/exit | /quit    leave the chat
//
// A failed message is reported and the loop continues, so a flaky connection
// does not end the conversation.
func runREPL(ctx context.Context, c chatter, scanner *bufio.Scanner, w io.Writer, theme Theme) {
	for {
		fmt.Fprint(w, theme.accent("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/help":
			fmt.Fprintln(w, "Type a question about the wedding, or one of: /forget, /exit")

		case "/forget":
			if err := c.Forget(ctx); err != nil {
				fmt.Fprintln(w, theme.error("Could not forget you: "+err.Error()))
				continue
			}
			fmt.Fprintln(w, "Forgotten. Run chat again to register as someone else.")
			return

		case "/exit", "/quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			if strings.HasPrefix(line, "/") {
				fmt.Fprintln(w, "Unknown command:", line)
				continue
			}
			reply, err := c.Send(ctx, line)
			if err != nil {
				fmt.Fprintln(w, theme.error("Message not sent: "+err.Error()))
				continue
			}
			fmt.Fprintln(w, theme.accent("assistant>"), reply)
		}
	}
}
