package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/core"
)

// runShell is the thin presentation layer: it renders read-model updates
// and turns typed commands into core actions. It never touches state
// directly.
func runShell(ctx context.Context, stop func(), a *app.App) {
	go renderUpdates(ctx, a)

	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				stop()
				return
			}
			if quit := handleLine(ctx, a, line); quit {
				stop()
				return
			}
		}
	}
}

func handleLine(ctx context.Context, a *app.App, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	c := a.Core()
	if !strings.HasPrefix(line, "/") {
		// Bare text goes to the open conversation.
		c.SendMessage(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		printHelp()
	case "friends":
		printFriends(ctx, c)
	case "open":
		if arg == "" {
			fmt.Println("usage: /open <friend-id>")
			return false
		}
		c.OpenConversation(arg)
	case "close":
		c.CloseConversation()
	case "msg":
		c.SendMessage(arg)
	case "typing":
		c.SetTyping(arg != "off")
	case "accept":
		c.AcceptRequest(arg)
	case "reject":
		c.RejectRequest(arg)
	case "find":
		findUsers(ctx, a, arg)
	case "add":
		addFriend(ctx, a, arg)
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command %q; try /help\n", cmd)
	}
	return false
}

func renderUpdates(ctx context.Context, a *app.App) {
	self := a.Self()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-a.Core().Updates():
			switch u.Kind {
			case core.UpdateConversation:
				if n := len(u.Messages); n > 0 {
					printMessage(self, u.Messages[n-1])
				}
			case core.UpdateTyping:
				if u.Typing {
					fmt.Printf("  %s is typing...\n", u.PeerID)
				}
			case core.UpdateFriends:
				for _, r := range u.Requests {
					fmt.Printf("  %s wants to be your friend (/accept %s or /reject %s)\n", r.Name, r.ID, r.ID)
				}
			case core.UpdateError:
				fmt.Printf("  error: %s\n", u.Err.Message)
			}
		}
	}
}

func printMessage(self core.User, m core.Message) {
	who := m.SenderID
	if m.SenderID == self.ID {
		who = "you"
	}
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
}

func printFriends(ctx context.Context, c *core.Core) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}

	if len(snap.Friends) == 0 {
		fmt.Println("No friends found.")
	}
	for _, f := range snap.Friends {
		status := "offline"
		if f.IsOnline {
			status = "online"
		}
		marker := ""
		if f.Notifications > 0 {
			marker = fmt.Sprintf(" (%d unread)", f.Notifications)
		}
		fmt.Printf("  %s  %s [%s]%s\n", f.ID, f.Name, status, marker)
	}
	for _, r := range snap.Requests {
		fmt.Printf("  request from %s (id %s)\n", r.Name, r.ID)
	}
}

func findUsers(ctx context.Context, a *app.App, name string) {
	if name == "" {
		fmt.Println("usage: /find <name>")
		return
	}

	results, err := a.API().FindUsers(ctx, a.Self().ID, name)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	if len(results) == 0 {
		fmt.Println("  nobody found")
		return
	}
	for _, r := range results {
		fmt.Printf("  %s  %s (/add %s)\n", r.ID, r.Name, r.ID)
	}
}

func addFriend(ctx context.Context, a *app.App, friendID string) {
	if friendID == "" {
		fmt.Println("usage: /add <user-id>")
		return
	}

	if err := a.API().AddFriend(ctx, a.Self().ID, friendID); err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	fmt.Println("Friend request sent successfully!")
}

func printHelp() {
	fmt.Print(`Commands:
  /friends          list friends and pending requests
  /open <id>        open the conversation with a friend
  /close            close the current conversation
  /msg <text>       send a message (bare text works too)
  /typing on|off    signal that you are typing
  /accept <id>      accept a friend request
  /reject <id>      reject a friend request
  /find <name>      search users by name
  /add <id>         send a friend request
  /quit             exit
`)
}
