package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"

	authproviders "github.com/duelist-dev/duelcore/pkg/auth/providers"
	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/duelist-dev/duelcore/pkg/decks"
	"github.com/duelist-dev/duelcore/pkg/gateway"
	"github.com/duelist-dev/duelcore/pkg/log"
	"github.com/duelist-dev/duelcore/pkg/network"
	"github.com/duelist-dev/duelcore/pkg/rooms"
	"github.com/duelist-dev/duelcore/pkg/version"
)

func main() {
	port := flag.Int("port", 8888, "WebSocket port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	attackConsumesEnergy := flag.Bool("attack-consumes-energy", false, "Deduct attack cost from the attacker's card energy")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting battle server version %s", version.Get())
	ctx := context.Background()

	connStr := os.Getenv("DUELCORE_DATABASE_URL")
	if connStr == "" {
		connStr = "sqlite://duelcore.db"
	}

	u, err := url.Parse(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse connection string: %v", err))
	}

	var store rooms.Store
	var deckSource battle.DeckSource
	switch u.Scheme {
	case "sqlite":
		sqliteStore, err := rooms.NewSQLiteStore(ctx, u.Host, "./migrations/sqlite")
		if err != nil {
			panic(fmt.Sprintf("Failed to create SQLite store: %v", err))
		}
		store = sqliteStore
		deckSource = decks.NewSQLiteSource(sqliteStore.DB())
	case "postgresql":
		postgresStore, err := rooms.NewPostgresStore(ctx, u.String())
		if err != nil {
			panic(fmt.Sprintf("Failed to create Postgres store: %v", err))
		}
		store = postgresStore
		deckSource = decks.NewPostgresSource(postgresStore.Conn())
	case "memory":
		store = rooms.NewInMemoryStore()
		deckSource = decks.NewStaticSource()
	default:
		panic(fmt.Sprintf("Unknown database type %s", u.Scheme))
	}
	defer store.Close(ctx)

	firebaseProjectID := os.Getenv("DUELCORE_FIREBASE_PROJECT_ID")
	if firebaseProjectID == "" {
		panic("DUELCORE_FIREBASE_PROJECT_ID environment variable must be set")
	}
	firebaseApiKey := os.Getenv("DUELCORE_FIREBASE_API_KEY")
	if firebaseApiKey == "" {
		panic("DUELCORE_FIREBASE_API_KEY environment variable must be set")
	}
	authProvider, err := authproviders.NewFirebaseAuthProvider(ctx, firebaseProjectID, firebaseApiKey)
	if err != nil {
		panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
	}

	machine := battle.NewMachine(deckSource, battle.Rules{
		AttackConsumesEnergy: *attackConsumesEnergy,
	})
	manager := network.NewConnectionManager()
	battleGateway := gateway.NewGateway(gateway.NewGatewayOptions{
		Machine:     machine,
		Store:       store,
		Broadcaster: manager,
	})

	wsServerOpts := network.NewWSServerOptions{
		Port:         *port,
		AuthProvider: authProvider,
		Manager:      manager,
		Handler:      battleGateway,
	}
	tlsCertFile := os.Getenv("DUELCORE_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("DUELCORE_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		wsServerOpts.TLS = &network.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	wsServer := network.NewWSServer(wsServerOpts)
	wsServer.Start(ctx)
}
