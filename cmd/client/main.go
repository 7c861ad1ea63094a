package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/duelist-dev/duelcore/pkg/log"
	"github.com/duelist-dev/duelcore/pkg/messages"
	"github.com/duelist-dev/duelcore/pkg/version"
	"github.com/gorilla/websocket"
)

// A line-mode client for poking at a battle server. Lines starting with
// "{" are sent as raw frames; everything else is a shorthand command.
func main() {
	serverURL := flag.String("url", "ws://localhost:8888", "server URL")
	room := flag.String("room", "test", "room slug to join")
	token := flag.String("token", "", "ID token")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	log.Info("Battle client version %s", version.Get())

	header := http.Header{}
	if *token != "" {
		header.Set("Authorization", "Bearer "+*token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/battle/%s", *serverURL, *room), header)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect: %v", err))
	}
	defer conn.Close()

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Error("Read error: %v", err)
				os.Exit(1)
			}
			fmt.Printf("< %s\n", data)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		frame, err := buildFrame(line)
		if err != nil {
			log.Error("%v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Error("Write error: %v", err)
			return
		}
	}
}

func buildFrame(line string) ([]byte, error) {
	if strings.HasPrefix(line, "{") {
		return []byte(line), nil
	}

	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	var payload interface{}
	switch cmd {
	case "pass":
		payload = messages.Envelope{Type: messages.MessageTypeActionPass}
	case "end":
		payload = messages.ClientEndTurn{Type: messages.MessageTypeActionEndTurn}
	case "ready":
		payload = messages.Envelope{Type: messages.MessageTypeActionSetupComplete}
	case "surrender":
		payload = messages.Envelope{Type: messages.MessageTypeActionSurrender}
	case "attack":
		msg := messages.ClientAttack{Type: messages.MessageTypeActionAttack}
		if len(args) > 0 {
			msg.TargetID = args[0]
		}
		payload = msg
	case "energy":
		if len(args) < 1 {
			return nil, fmt.Errorf("usage: energy <card-id>")
		}
		payload = messages.ClientAssignEnergy{Type: messages.MessageTypeActionAssignEnergy, CardID: args[0]}
	case "place":
		if len(args) < 2 {
			return nil, fmt.Errorf("usage: place <hand-index> <battle_card|bench>")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid hand index: %v", err)
		}
		payload = messages.ClientPlaceCard{Type: messages.MessageTypeActionPlaceCard, CardIndex: index, ToField: args[1]}
	case "escape":
		if len(args) < 1 {
			return nil, fmt.Errorf("usage: escape <bench-index>")
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid bench index: %v", err)
		}
		payload = messages.ClientEscape{Type: messages.MessageTypeActionEscape, BenchIndex: &index}
	case "say":
		payload = messages.ClientChatMessage{Type: messages.MessageTypeChatMessage, Message: strings.Join(args, " ")}
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}

	return json.Marshal(payload)
}
