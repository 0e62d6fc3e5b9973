// Command dialogcli is a minimal REPL smoke client for the dialog engine,
// wired entirely against the in-memory catalog fixtures (orders are not
// persisted), for exercising a turn without a Postgres instance.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ndoemo/dialogbrain/internal/catalog"
	"github.com/ndoemo/dialogbrain/internal/icm"
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/nlu"
	"github.com/ndoemo/dialogbrain/internal/pipeline"
	"github.com/ndoemo/dialogbrain/internal/pkg/config"
	"github.com/ndoemo/dialogbrain/internal/session"
)

func main() {
	logger := zap.NewNop()

	restaurants := catalog.Seed()
	cat := catalog.Build(restaurants)
	repo := catalog.NewMemoryRepository(catalog.SeedRows(), catalog.SeedMenus())
	nearbyCache := catalog.NewNearbyCache()

	icmMap := icm.Default()
	router := nlu.New(cat, icmMap)
	sessions := session.NewStore(logger)
	defer sessions.Stop()

	adminStore := config.NewAdminStore(config.AdminConfig{
		TTSEnabled:              false,
		DialogNavigationEnabled: true,
		FallbackMode:            "SMART",
	})

	engine := pipeline.New(sessions, router, icmMap, cat, repo, nearbyCache, nil, adminStore, logger)

	fmt.Println("dialogbrain smoke REPL — type a Polish sentence, Ctrl+D to quit")
	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := engine.HandleTurn(context.Background(), models.Request{
			SessionID: sessionID,
			Input:     line,
		})
		sessionID = resp.SessionID

		fmt.Printf("[%s] %s\n", resp.Intent, resp.Reply)
		if resp.ConversationClosed {
			fmt.Printf("(conversation closed; next session id: %s)\n", resp.NewSessionID)
			sessionID = resp.NewSessionID
		}
	}
}
