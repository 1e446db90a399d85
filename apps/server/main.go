package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"holdem-tourney/apps/server/internal/auth"
	"holdem-tourney/apps/server/internal/gateway"
	"holdem-tourney/apps/server/internal/ledger"
	"holdem-tourney/apps/server/internal/lobby"
	"holdem-tourney/holdem/npc"
	"holdem-tourney/repository"
	"holdem-tourney/timer"
	"holdem-tourney/tournament"
)

func main() {
	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init auth manager: %v", err)
	}
	defer authService.Close()

	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv(authMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	repo, repoMode, err := repository.NewRepositoryFromEnv(strings.TrimSpace(os.Getenv("REPOSITORY_MODE")))
	if err != nil {
		log.Fatalf("[Server] Failed to init repository: %v", err)
	}
	defer repo.Close()

	// NPC opponents: practice personas a table can seat alongside real
	// registrants (spec.md's distillation drops chapter/story content but
	// keeps plain bot seats as a supplemented feature).
	npcRegistry := npc.NewRegistry()
	personaPaths := []string{"data/npc_personas.json", "../../data/npc_personas.json"}
	personasLoaded := false
	for _, p := range personaPaths {
		if err := npcRegistry.LoadFromFile(p); err == nil {
			log.Printf("[Server] NPC personas loaded from %s: %d personas", p, npcRegistry.Count())
			personasLoaded = true
			break
		}
	}
	if !personasLoaded {
		log.Printf("[Server] NPC personas not found (non-fatal), tried: %v", personaPaths)
	}
	var npcSeed int64
	if raw := strings.TrimSpace(os.Getenv("NPC_SEED")); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			npcSeed = v
		} else {
			log.Printf("[Server] NPC_SEED=%q invalid, ignoring: %v", raw, err)
		}
	}
	npcManager := npc.NewManager(npcRegistry, npcSeed)

	timerService := timer.NewService()
	defer timerService.Stop()

	controller, err := tournament.NewController(repo, timerService, 0)
	if err != nil {
		log.Fatalf("[Server] Failed to init tournament controller: %v", err)
	}

	gw := gateway.New(nil, authService)
	lby := lobby.New(ledgerService, repo, controller, gw.BroadcastToUser, npcManager)
	gw.SetLobby(lby)
	defer lby.Stop()

	authHTTP := auth.NewHTTPHandler(authService)
	auditHTTP := ledger.NewHTTPHandler(authService, ledgerService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	auditHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("SERVER_ADDR"))
	if addr == "" {
		addr = ":18080"
	}
	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Repository mode: %s", repoMode)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
