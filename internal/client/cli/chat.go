package cli

import (
	"context"
	"fmt"
	"strings"
)

// Chat runs an interactive assistant session. An empty line leaves the
// session; "/clear" wipes the conversation history.
func (a *App) Chat(ctx context.Context) {
	history, err := a.chat.History(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	for _, msg := range history {
		a.printMessage(msg.IsUser, msg.Content)
	}

	fmt.Fprintln(a.out, "Chat session started (empty line to leave, /clear to reset)")
	for {
		fmt.Fprint(a.out, "you> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if line == "/clear" {
			if err := a.chat.Clear(ctx); err != nil {
				a.fail(err)
				continue
			}
			fmt.Fprintln(a.out, "history cleared")
			continue
		}

		reply, err := a.chat.Send(ctx, line, "")
		if err != nil {
			a.fail(err)
			continue
		}
		a.printMessage(reply.IsUser, reply.Content)
	}
}

func (a *App) printMessage(isUser bool, content string) {
	who := "assistant"
	if isUser {
		who = "you"
	}
	fmt.Fprintf(a.out, "%s> %s\n", who, content)
}
