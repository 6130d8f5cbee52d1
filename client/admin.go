package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mahaj/guestline/pkg/model"
	"github.com/mahaj/guestline/pkg/session"
)

func adminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Open the operator dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--user and --password are required")
			}
			return runAdmin(username, password)
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func runAdmin(username, password string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := session.StartAdmin(ctx, session.AdminConfig{
		Username:   username,
		Password:   password,
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
				renderAdmin(s)
			default:
				fmt.Printf("\r[%s] %s\n> ", n.Kind, n.Text)
			}
		}
	}()

	renderAdmin(s)
	fmt.Println("commands: /open <guest>, /close, /media <path>... [--price N], /unsend <id>, /toggle <guest>, /quit; other input sends text")

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return nil
		case line == "/close":
			s.CloseConversation()
			renderAdmin(s)
		case strings.HasPrefix(line, "/open "):
			guest := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			if err := s.OpenConversation(ctx, guest); err != nil {
				fmt.Println("error:", err)
			}
		case strings.HasPrefix(line, "/toggle "):
			guest := strings.TrimSpace(strings.TrimPrefix(line, "/toggle "))
			if s.ToggleRead(guest) {
				fmt.Println(guest, "marked unread")
			} else {
				fmt.Println(guest, "marked read")
			}
		case strings.HasPrefix(line, "/media "):
			paths, price, err := parseMediaArgs(strings.TrimPrefix(line, "/media "))
			if err == nil {
				err = s.SendMedia(ctx, price, paths...)
			}
			if err != nil {
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

// parseMediaArgs splits "/media a.png b.png --price 9.99" into paths and
// an optional price.
func parseMediaArgs(rest string) ([]string, *float64, error) {
	fields := strings.Fields(rest)
	var paths []string
	var price *float64
	for i := 0; i < len(fields); i++ {
		if fields[i] == "--price" {
			if i+1 >= len(fields) {
				return nil, nil, fmt.Errorf("--price needs a value")
			}
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad price: %w", err)
			}
			price = &v
			i++
			continue
		}
		paths = append(paths, fields[i])
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no files to send")
	}
	return paths, price, nil
}

func renderAdmin(s *session.AdminSession) {
	now := time.Now()
	fmt.Print("\r")
	fmt.Println("--- guests ---")
	for _, e := range s.Roster(now) {
		status := "offline"
		if e.Online {
			status = "online"
		}
		badge := ""
		if e.Unread > 0 {
			badge = fmt.Sprintf(" (%d unread)", e.Unread)
		}
		fmt.Printf("  %s [%s]%s\n", e.Guest.Username, status, badge)
	}

	if open := s.Open(); open != "" {
		fmt.Printf("--- conversation: %s ---\n", open)
		for _, m := range s.Messages() {
			if m.IsUnsent {
				fmt.Printf("#%d %s %s: [retracted]\n", m.ID, m.CreatedAt.Local().Format("15:04"), m.Sender)
				continue
			}
			tick := ""
			if m.Sender == model.SenderAdmin {
				tick = tickLabel(s.Tick(m))
			}
			fmt.Println(formatMessage(m, tick))
		}
	}
	fmt.Print("> ")
}
