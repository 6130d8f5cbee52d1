package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mahaj/guestline/pkg/delivery"
	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/session"
)

func guestCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Join the chat as a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--user is required")
			}
			return runGuest(username)
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "guest username")
	return cmd
}

func runGuest(username string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := session.StartGuest(ctx, session.GuestConfig{
		Username:   username,
		APIURL:     viper.GetString("client.api"),
		GatewayURL: viper.GetString("client.gateway"),
		Logger:     clientLogger(),
	})
	if err != nil {
		return err
	}
	defer s.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		s.Stop()
		os.Exit(0)
	}()

	go func() {
		for n := range s.Notices() {
			switch n.Kind {
			case "refresh":
				renderGuestChat(s)
			default:
				fmt.Printf("\r[%s] %s\n> ", n.Kind, n.Text)
			}
		}
	}()

	renderGuestChat(s)
	fmt.Println("type a message, or /media <path>..., /unsend <id>, /receipts on|off, /bg, /fg, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return nil
		case line == "/bg":
			s.SetForeground(ctx, false)
		case line == "/fg":
			s.SetForeground(ctx, true)
		case strings.HasPrefix(line, "/receipts "):
			s.SetReadReceipts(ctx, strings.TrimPrefix(line, "/receipts ") == "on")
		case strings.HasPrefix(line, "/media "):
			paths := strings.Fields(strings.TrimPrefix(line, "/media "))
			if err := s.SendMedia(ctx, paths...); err != nil {
				fmt.Println("error:", err)
			}
		case strings.HasPrefix(line, "/unsend "):
			id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/unsend ")), 10, 64)
			if err != nil {
				fmt.Println("error: bad message id")
				break
			}
			if err := s.Unsend(ctx, id); err != nil {
				fmt.Println("error:", err)
			}
		default:
			if err := s.SendText(ctx, line); err != nil {
				fmt.Println("error:", err)
			}
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

func renderGuestChat(s *session.GuestSession) {
	fmt.Print("\r")
	for _, m := range s.Messages() {
		fmt.Println(formatMessage(m, tickLabel(s.Tick(m))))
	}
	fmt.Print("> ")
}

func formatMessage(m model.Message, tick string) string {
	body := strings.Join(m.Content.Parts(), " ")
	if m.IsLocked && m.Price != nil {
		body = fmt.Sprintf("[locked %s - %.2f]", m.ContentType, *m.Price)
	}
	label := fmt.Sprintf("#%d %s %s: %s", m.ID, m.CreatedAt.Local().Format("15:04"), m.Sender, body)
	if tick != "" {
		label += " " + tick
	}
	return label
}

func tickLabel(t delivery.Tick) string {
	switch t {
	case delivery.TickSent:
		return "[sent]"
	case delivery.TickDelivered:
		return "[delivered]"
	case delivery.TickRead:
		return "[read]"
	default:
		return ""
	}
}
