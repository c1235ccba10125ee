// Package client provides a small CLI for poking a running dungeon server:
// reading floor geometry and tailing a floor's live event feed.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	authToken  string
)

// ClientCmd is the parent command for all client operations
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for testing the dungeon server",
	Long:  `Connect to a running dungeon server to inspect floors or watch the live event feed.`,
}

func init() {
	ClientCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:8080", "server address")
	ClientCmd.PersistentFlags().StringVar(&authToken, "token", "dev", "auth token")

	ClientCmd.AddCommand(spawnCmd)
	ClientCmd.AddCommand(floorCmd)
	ClientCmd.AddCommand(watchCmd)
}

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Print the spawn floor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrint("/v1/spawn")
	},
}

var floorCmd = &cobra.Command{
	Use:   "floor <name> <layout|tiles|stairs>",
	Short: "Print a floor's geometry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrint(fmt.Sprintf("/v1/floors/%s/%s", url.PathEscape(args[0]), args[1]))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [floor]",
	Short: "Tail the live event feed, optionally joining a specific floor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func getAndPrint(path string) error {
	resp, err := http.Get(fmt.Sprintf("http://%s%s", serverAddr, path))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	var pretty json.RawMessage = body
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	wsURL := fmt.Sprintf("ws://%s/v1/ws?token=%s", serverAddr, url.QueryEscape(authToken))
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	if len(args) == 1 {
		if err := conn.WriteJSON(map[string]string{"type": "join_floor", "floor": args[0]}); err != nil {
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		_ = conn.Close()
	}()

	fmt.Fprintln(os.Stderr, "connected, watching events (ctrl-c to quit)")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		fmt.Println(string(data))
	}
}
