// chat is a minimal line-oriented frontend over the session's command
// API. It keeps no chat state of its own; everything it prints comes from
// the session's snapshot accessors.
//
//	/msg <username> <text>   send a private message
//	/react <id> <emoji>      react to a message
//	/who                     list online users
//	/quit                    leave
//
// Anything else is sent as a public message.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"chatsync/chat"
	"chatsync/internal/config"
)

func main() {
	cfg := config.Load()

	username := cfg.Username
	if username == "" {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		username = strings.TrimSpace(line)
	}

	session := chat.New(cfg.ServerURL, chat.WithTypingExpiry(cfg.TypingExpiry))

	var mu sync.Mutex
	printed := 0
	session.OnUpdate(func() {
		mu.Lock()
		defer mu.Unlock()
		msgs := session.Messages()
		for _, m := range msgs[printed:] {
			switch {
			case m.System:
				fmt.Printf("  * %s\n", m.Body)
			case m.RecipientID != "":
				fmt.Printf("  [private] %s: %s\n", m.Sender, m.Body)
			default:
				fmt.Printf("  %s: %s\n", m.Sender, m.Body)
			}
		}
		printed = len(msgs)

		if typing := session.TypingUsers(); len(typing) > 0 {
			fmt.Printf("  … %s typing\n", strings.Join(typing, ", "))
		}
	})

	if err := session.Connect(context.Background(), username); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer session.Disconnect()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/quit":
			return

		case line == "/who":
			for _, u := range session.Users() {
				fmt.Printf("  %s (%s)\n", u.Username, u.ID)
			}

		case strings.HasPrefix(line, "/msg "):
			parts := strings.SplitN(line, " ", 3)
			if len(parts) < 3 {
				fmt.Println("usage: /msg <username> <text>")
				continue
			}
			if id, ok := findUser(session, parts[1]); ok {
				err = session.SendPrivateMessage(id, parts[2])
			} else {
				fmt.Printf("no such user %q\n", parts[1])
			}

		case strings.HasPrefix(line, "/react "):
			parts := strings.SplitN(line, " ", 3)
			if len(parts) < 3 {
				fmt.Println("usage: /react <id> <emoji>")
				continue
			}
			err = session.SendReaction(parts[1], parts[2])

		default:
			err = session.SendMessage(line)
		}

		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func findUser(session *chat.Session, username string) (string, bool) {
	for _, u := range session.Users() {
		if u.Username == username {
			return u.ID, true
		}
	}
	return "", false
}
