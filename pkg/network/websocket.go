package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/duelist-dev/duelcore/pkg/auth/providers"
	"github.com/duelist-dev/duelcore/pkg/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// SessionHandler receives lifecycle events for authenticated connections.
type SessionHandler interface {
	// HandleConnect is called after the WebSocket upgrade. A returned
	// error closes the connection.
	HandleConnect(ctx context.Context, conn *Connection) error
	// HandleMessage is called for every text frame read from the client.
	HandleMessage(ctx context.Context, conn *Connection, data []byte)
	// HandleDisconnect is called when the read loop ends.
	HandleDisconnect(ctx context.Context, conn *Connection)
}

// WSServer represents a WebSocket server.
type WSServer struct {
	port         int
	tls          *TLSConfig
	authProvider authproviders.AuthProvider
	manager      *ConnectionManager
	handler      SessionHandler
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port         int
	TLS          *TLSConfig
	AuthProvider authproviders.AuthProvider
	Manager      *ConnectionManager
	Handler      SessionHandler
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:         opts.Port,
		tls:          opts.TLS,
		authProvider: opts.AuthProvider,
		manager:      opts.Manager,
		handler:      opts.Handler,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	router := mux.NewRouter()
	router.HandleFunc("/battle/{slug}", func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]

		token, err := parseToken(r)
		if err != nil {
			log.Error("Failed to parse token: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := s.authProvider.VerifyToken(r.Context(), token)
		if err != nil {
			log.Error("Failed to verify ID token: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())

		name := claims.Name
		if name == "" {
			name = claims.UID
		}
		connection := &Connection{
			ID:     uuid.New().String(),
			UserID: claims.UID,
			Name:   name,
			Slug:   slug,
			conn:   conn,
		}
		go s.handleWSConnection(ctx, connection)
	})

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		server.Shutdown(ctx)
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection handles a WebSocket connection.
func (s *WSServer) handleWSConnection(ctx context.Context, connection *Connection) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.handler.HandleDisconnect(ctx, connection)
		s.manager.RemoveConnection(connection.ID)
		connection.Close()
	}()

	s.manager.AddConnection(connection)
	if err := s.handler.HandleConnect(ctx, connection); err != nil {
		log.Error("Failed to connect %s to room %s: %v", connection.UserID, connection.Slug, err)
		return
	}

	for {
		_, data, err := connection.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", connection.conn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", connection.conn.RemoteAddr().String())
			return
		}

		s.handler.HandleMessage(ctx, connection, data)
	}
}

// parseToken parses the bearer token from the Authorization header,
// falling back to the token query parameter for browser clients.
func parseToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", fmt.Errorf("invalid Authorization header format")
		}
		return parts[1], nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no token provided")
}
