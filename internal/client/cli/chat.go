package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/guest"
)

func newChatCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <access-code>",
		Short: "Chat with the wedding assistant as a guest",
		Long: `Chat opens the guest assistant for the wedding with the given access code.
Guests register once with their name and phone number; on later visits they
are recognised automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *App) error { return a.Chat(cmd.Context(), args[0]) })
		},
	}
}

func newForgetCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <access-code>",
		Short: "Forget the guest remembered for a wedding on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *App) error { return a.Forget(cmd.Context(), args[0]) })
		},
	}
}

// Forget drops the guest remembered for accessCode.
func (a *App) Forget(ctx context.Context, accessCode string) error {
	if err := a.guests.Clear(ctx, accessCode); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Forgotten.")
	return nil
}

// Chat runs the guest flow for accessCode: recognise or register the guest,
// open a chat and hand over to the REPL.
func (a *App) Chat(ctx context.Context, accessCode string) error {
	fmt.Fprintln(a.out, "Checking whether we've met...")
	sess, err := a.guests.Load(ctx, accessCode)
	if err != nil {
		return err
	}

	var chat *guest.ChatSession
	if sess != nil {
		fmt.Fprintf(a.out, "Welcome back, %s!\n", a.theme.accent(sess.GuestName))
		me, err := Confirm(a.reader, "Continue as "+sess.GuestName+"?", true, a.out)
		if err != nil {
			return err
		}
		if me {
			chat, err = a.guests.ContinueChat(ctx, accessCode, sess.GuestName)
			if err != nil {
				return a.chatStartFailed(err)
			}
		} else {
			if err := a.guests.Clear(ctx, accessCode); err != nil {
				return err
			}
		}
	}

	if chat == nil {
		chat, err = a.register(ctx, accessCode)
		if err != nil {
			return err
		}
	}

	if chat.WeddingTitle != "" {
		fmt.Fprintln(a.out, a.theme.accent(chat.WeddingTitle))
	}
	if chat.Greeting != "" {
		fmt.Fprintln(a.out, a.theme.accent("assistant>"), chat.Greeting)
	}
	fmt.Fprintln(a.out, a.theme.hint("Type /help for commands."))

	runREPL(ctx, &guestChat{app: a, chat: chat}, bufio.NewScanner(a.reader), a.out, a.theme)
	return nil
}

func (a *App) register(ctx context.Context, accessCode string) (*guest.ChatSession, error) {
	fmt.Fprintln(a.out, "Please introduce yourself so the couple knows who is asking.")

	for {
		var p guest.Profile
		var err error
		if p.Name, err = GetRequiredText(a.reader, "Your name", a.out); err != nil {
			return nil, err
		}
		if p.Phone, err = GetRequiredText(a.reader, "Phone number", a.out); err != nil {
			return nil, err
		}
		if p.Email, err = GetSimpleText(a.reader, "Email (optional)", a.out); err != nil {
			return nil, err
		}

		chat, err := a.guests.RegisterAndStartChat(ctx, accessCode, p)
		switch {
		case err == nil:
			if chat.AlreadyRegistered {
				fmt.Fprintf(a.out, "Welcome back, %s! You were already on the list.\n", chat.GuestName)
			}
			return chat, nil
		case errors.Is(err, guest.ErrInvalidProfile):
			fmt.Fprintln(a.out, a.theme.error(err.Error()))
		case errors.Is(err, guest.ErrRegistration):
			fmt.Fprintln(a.out, a.theme.error(userMessage(err, "Registration failed.")))
			again, cerr := Confirm(a.reader, "Try again?", true, a.out)
			if cerr != nil {
				return nil, cerr
			}
			if !again {
				return nil, err
			}
		default:
			return nil, a.chatStartFailed(err)
		}
	}
}

func (a *App) chatStartFailed(err error) error {
	if errors.Is(err, guest.ErrChatStart) {
		fmt.Fprintln(a.out, a.theme.hint("You're registered, but the chat is temporarily unavailable. Please try again later."))
	}
	return err
}

// userMessage prefers the server's own explanation over the wrapped error.
func userMessage(err error, fallback string) string {
	if d := api.Detail(err); d != "" {
		return fallback + " " + d
	}
	return fallback
}

// guestChat adapts an open chat session to the REPL.
type guestChat struct {
	app  *App
	chat *guest.ChatSession
}

func (g *guestChat) Send(ctx context.Context, text string) (string, error) {
	return g.app.guests.SendMessage(ctx, g.chat, text)
}

func (g *guestChat) Forget(ctx context.Context) error {
	return g.app.guests.Clear(ctx, g.chat.AccessCode)
}
