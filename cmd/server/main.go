package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/draftkit/draftkit/backend-go/internal/auth"
	"github.com/draftkit/draftkit/backend-go/internal/config"
	"github.com/draftkit/draftkit/backend-go/internal/db"
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/drawing"
	"github.com/draftkit/draftkit/backend-go/internal/file"
	mw "github.com/draftkit/draftkit/backend-go/internal/middleware"
	"github.com/draftkit/draftkit/backend-go/internal/session"
)

// playgroundDrawingID is the anonymous sandbox drawing. It lives only
// in memory and never persists.
const playgroundDrawingID = "dwg_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	drawingService := drawing.NewService(queries)
	drawingHandler := drawing.NewHandler(drawingService)

	fileHandler := file.NewHandler(cfg.DataDir)

	docLoader := func(drawingID string) (*document.DraftDocument, error) {
		if drawingID == playgroundDrawingID {
			return document.NewSampleDrawing(playgroundDrawingID), nil
		}
		// Background context since this runs in the hub goroutine.
		return drawingService.LoadDocument(context.Background(), drawingID)
	}
	docSaver := func(drawingID string, doc *document.DraftDocument) error {
		if drawingID == playgroundDrawingID {
			return nil
		}
		return drawingService.SaveSnapshot(context.Background(), drawingID, doc)
	}

	hub := session.NewHub(docLoader, docSaver)
	go hub.Run()

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.RequireAuth)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/drawings", drawingHandler.List).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.Create).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Get).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Rename).Methods("PUT")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Delete).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/snapshots/latest", drawingHandler.GetLatestSnapshot).Methods("GET")

	api.HandleFunc("/files", fileHandler.List).Methods("GET")
	api.HandleFunc("/files", fileHandler.Save).Methods("POST")
	api.HandleFunc("/files/{name}", fileHandler.Load).Methods("GET")
	api.HandleFunc("/files/{name}", fileHandler.Delete).Methods("DELETE")

	r.HandleFunc("/ws/drawing/{drawingId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, drawingService, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first so dirty drawings flush before connections
		// drop.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, drawingSvc *drawing.Service, origins []string) {
	vars := mux.Vars(r)
	drawingID := vars["drawingId"]

	var userID string
	var displayName string

	if drawingID == playgroundDrawingID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if !drawingSvc.IsOwner(r.Context(), drawingID, userID) {
			http.Error(w, "not the drawing owner", http.StatusForbidden)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(hub, conn, userID, displayName, drawingID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns converts CORS origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		out = append(out, o)
	}
	return out
}
