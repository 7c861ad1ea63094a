package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/duelist-dev/duelcore/pkg/log"
	"github.com/duelist-dev/duelcore/pkg/messages"
	"github.com/duelist-dev/duelcore/pkg/network"
	"github.com/duelist-dev/duelcore/pkg/rooms"
)

// Gateway bridges WebSocket sessions to the battle state machine. Every
// room transition runs under that room's lock: load, apply, persist,
// project, broadcast. Rejections are delivered to the actor only and
// leave the stored room untouched.
type Gateway struct {
	machine     *battle.Machine
	store       rooms.Store
	broadcaster network.Broadcaster

	roomLocks map[string]*sync.Mutex
	locksLock sync.Mutex
}

var _ network.SessionHandler = &Gateway{}

type NewGatewayOptions struct {
	Machine     *battle.Machine
	Store       rooms.Store
	Broadcaster network.Broadcaster
}

// NewGateway creates a new Gateway.
func NewGateway(opts NewGatewayOptions) *Gateway {
	return &Gateway{
		machine:     opts.Machine,
		store:       opts.Store,
		broadcaster: opts.Broadcaster,
		roomLocks:   make(map[string]*sync.Mutex),
	}
}

// lockRoom returns the mutex serializing transitions for a room slug.
func (g *Gateway) lockRoom(slug string) *sync.Mutex {
	g.locksLock.Lock()
	defer g.locksLock.Unlock()
	lock, ok := g.roomLocks[slug]
	if !ok {
		lock = &sync.Mutex{}
		g.roomLocks[slug] = lock
	}
	return lock
}

func (g *Gateway) dropLock(slug string) {
	g.locksLock.Lock()
	defer g.locksLock.Unlock()
	delete(g.roomLocks, slug)
}

// HandleConnect joins the connection's user to the room named by the
// connection's slug, creating the room if it does not exist yet.
func (g *Gateway) HandleConnect(ctx context.Context, conn *network.Connection) error {
	lock := g.lockRoom(conn.Slug)
	lock.Lock()
	defer lock.Unlock()

	room, err := g.store.GetBySlug(ctx, conn.Slug)
	switch {
	case rooms.IsNotFound(err):
		room = g.machine.NewRoom(conn.Slug, conn.UserID, conn.Name, conn.ID)
		log.Info("User %s created room %s", conn.UserID, conn.Slug)
	case err != nil:
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("failed to load room"))
		return fmt.Errorf("failed to load room %s: %v", conn.Slug, err)
	case room.Player(conn.UserID) != nil:
		if err := g.machine.Rejoin(room, conn.UserID, conn.ID); err != nil {
			g.broadcaster.SendToConnection(conn.ID, messages.NewError("failed to rejoin room"))
			return err
		}
		log.Info("User %s rejoined room %s", conn.UserID, conn.Slug)
	default:
		if err := g.machine.Join(ctx, room, conn.UserID, conn.Name, conn.ID); err != nil {
			g.rejectOrFail(conn.ID, err, "failed to join room")
			return err
		}
		log.Info("User %s joined room %s", conn.UserID, conn.Slug)
	}

	conn.RoomID = room.ID
	if err := g.store.Save(ctx, room); err != nil {
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("failed to save room"))
		return fmt.Errorf("failed to save room %s: %v", room.ID, err)
	}

	g.broadcastState(room)
	return nil
}

// HandleMessage dispatches one client frame.
func (g *Gateway) HandleMessage(ctx context.Context, conn *network.Connection, data []byte) {
	msgType, err := messages.ParseType(data)
	if err != nil {
		log.Debug("Invalid message from %s: %v", conn.UserID, err)
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("invalid message"))
		return
	}

	if msgType == messages.MessageTypeChatMessage {
		g.handleChat(ctx, conn, data)
		return
	}

	action, ok, err := decodeAction(msgType, data)
	if !ok {
		g.broadcaster.SendToConnection(conn.ID, messages.NewError(fmt.Sprintf("unknown message type: %s", msgType)))
		return
	}
	if err != nil {
		log.Debug("Invalid %s message from %s: %v", msgType, conn.UserID, err)
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("invalid message"))
		return
	}

	g.applyAction(ctx, conn, action)
}

// HandleDisconnect tears the room down. An unfinished battle cannot
// continue with one player, so the remaining player is notified and the
// room is deleted.
func (g *Gateway) HandleDisconnect(ctx context.Context, conn *network.Connection) {
	if conn.RoomID == "" {
		return
	}

	lock := g.lockRoom(conn.Slug)
	lock.Lock()
	defer lock.Unlock()

	room, err := g.store.GetBySlug(ctx, conn.Slug)
	if err != nil {
		if !rooms.IsNotFound(err) {
			log.Error("Failed to load room %s on disconnect: %v", conn.Slug, err)
		}
		return
	}

	slot := room.Player(conn.UserID)
	if slot == nil || slot.ConnectionID != conn.ID {
		// the user already reconnected on another connection
		return
	}

	g.machine.MarkDisconnected(room, conn.UserID)

	if !room.Finished() {
		if opp := room.Opponent(conn.UserID); opp != nil && opp.IsConnected {
			g.broadcaster.SendToConnection(opp.ConnectionID, messages.NewError("your opponent has disconnected"))
		}
	}

	if err := g.store.Delete(ctx, room.ID); err != nil {
		log.Error("Failed to delete room %s: %v", room.ID, err)
	}
	g.dropLock(conn.Slug)
	log.Info("User %s disconnected, room %s closed", conn.UserID, conn.Slug)
}

// applyAction runs one action through the state machine and persists and
// broadcasts the result. A rejected action sends a single notice to the
// actor and nothing to anyone else.
func (g *Gateway) applyAction(ctx context.Context, conn *network.Connection, action battle.Action) {
	lock := g.lockRoom(conn.Slug)
	lock.Lock()
	defer lock.Unlock()

	room, err := g.store.GetBySlug(ctx, conn.Slug)
	if err != nil {
		log.Error("Failed to load room %s: %v", conn.Slug, err)
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("room not found"))
		return
	}

	events, err := g.machine.Apply(room, conn.UserID, action)
	if err != nil {
		g.rejectOrFail(conn.ID, err, "failed to apply action")
		return
	}

	if err := g.store.Save(ctx, room); err != nil {
		log.Error("Failed to save room %s: %v", room.ID, err)
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("failed to save room"))
		return
	}

	g.deliverEvents(room, events)
	g.broadcastState(room)
}

// handleChat relays a chat line to everyone in the room. Chat does not
// touch battle state and is not persisted.
func (g *Gateway) handleChat(ctx context.Context, conn *network.Connection, data []byte) {
	msg := &messages.ClientChatMessage{}
	if err := json.Unmarshal(data, msg); err != nil {
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("invalid message"))
		return
	}
	if msg.Message == "" {
		return
	}

	lock := g.lockRoom(conn.Slug)
	lock.Lock()
	defer lock.Unlock()

	room, err := g.store.GetBySlug(ctx, conn.Slug)
	if err != nil {
		log.Error("Failed to load room %s: %v", conn.Slug, err)
		g.broadcaster.SendToConnection(conn.ID, messages.NewError("room not found"))
		return
	}

	relay := &messages.ServerChatMessage{
		Type:    messages.MessageTypeChatMessage,
		User:    messages.ChatUser{ID: conn.UserID, Name: conn.Name},
		Message: msg.Message,
	}
	for _, slot := range room.Players {
		if slot == nil || !slot.IsConnected {
			continue
		}
		g.broadcaster.SendToConnection(slot.ConnectionID, relay)
	}
}

// rejectOrFail sends a Rejection back to the actor with its severity, or a
// generic error when the failure is not a rejection.
func (g *Gateway) rejectOrFail(connectionID string, err error, fallback string) {
	if rej, ok := battle.AsRejection(err); ok {
		if rej.Severity == battle.SeverityWarning {
			g.broadcaster.SendToConnection(connectionID, messages.NewWarning(rej.Message))
		} else {
			g.broadcaster.SendToConnection(connectionID, messages.NewError(rej.Message))
		}
		return
	}
	log.Error("%s: %v", fallback, err)
	g.broadcaster.SendToConnection(connectionID, messages.NewError(fallback))
}

// deliverEvents sends transition events to their recipients. An event with
// no recipients goes to everyone in the room.
func (g *Gateway) deliverEvents(room *battle.Room, events []battle.Event) {
	for _, event := range events {
		var payload interface{}
		switch event.Kind {
		case battle.EventChat:
			payload = &messages.ServerChatMessage{
				Type:    messages.MessageTypeChatMessage,
				User:    messages.ChatUser{Name: event.User},
				Message: event.Message,
			}
		case battle.EventInfo:
			payload = messages.NewInfo(event.Message)
		default:
			continue
		}

		for _, slot := range room.Players {
			if slot == nil || !slot.IsConnected {
				continue
			}
			if len(event.Recipients) > 0 && !contains(event.Recipients, slot.UserID) {
				continue
			}
			g.broadcaster.SendToConnection(slot.ConnectionID, payload)
		}
	}
}

// broadcastState sends each connected player its own projection of the room.
func (g *Gateway) broadcastState(room *battle.Room) {
	for _, slot := range room.Players {
		if slot == nil || !slot.IsConnected {
			continue
		}
		update := &messages.ServerBattleUpdate{
			Type:   messages.MessageTypeBattleUpdate,
			YouAre: room.SlotName(slot.UserID),
			Data:   battle.Project(room, slot.UserID),
		}
		g.broadcaster.SendToConnection(slot.ConnectionID, update)
	}
}

// decodeAction maps a client frame to a state machine action. The second
// return is false for unknown message types.
func decodeAction(msgType string, data []byte) (battle.Action, bool, error) {
	switch msgType {
	case messages.MessageTypeActionPass:
		return battle.PassTurn{}, true, nil
	case messages.MessageTypeActionEndTurn:
		msg := &messages.ClientEndTurn{}
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, true, err
		}
		return battle.EndTurn{Forced: msg.Forced}, true, nil
	case messages.MessageTypeActionAssignEnergy:
		msg := &messages.ClientAssignEnergy{}
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, true, err
		}
		return battle.AssignEnergy{CardID: msg.CardID}, true, nil
	case messages.MessageTypeActionPlaceCard:
		msg := &messages.ClientPlaceCard{}
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, true, err
		}
		return battle.PlaceCard{HandIndex: msg.CardIndex, ToField: msg.ToField}, true, nil
	case messages.MessageTypeActionSetupComplete:
		return battle.DeclareSetupComplete{}, true, nil
	case messages.MessageTypeActionAttack:
		msg := &messages.ClientAttack{}
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, true, err
		}
		return battle.Attack{TargetID: msg.TargetID}, true, nil
	case messages.MessageTypeActionEscape:
		msg := &messages.ClientEscape{}
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, true, err
		}
		if msg.BenchIndex == nil {
			return nil, true, fmt.Errorf("bench_index is required")
		}
		return battle.Retreat{BenchIndex: *msg.BenchIndex}, true, nil
	case messages.MessageTypeActionSurrender:
		return battle.Surrender{}, true, nil
	default:
		return nil, false, nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
