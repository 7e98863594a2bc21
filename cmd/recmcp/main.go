// Command recmcp serves the tennis court booking MCP server. By
// default it speaks MCP over stdio; with -http it serves the
// streamable HTTP transport plus the /authenticate endpoint used by
// the out-of-band login frontend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/auth"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/booking"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/browser"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/config"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/mcptools"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/site"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/store"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/summary"
)

const version = "1.0.0"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.recmcp/config.yaml)")
		dbPath      = flag.String("db", "", "path to bookings database (overrides config)")
		httpAddr    = flag.String("http", "", "serve MCP over HTTP on this address instead of stdio (e.g. :8787)")
		headed      = flag.Bool("headed", false, "run the browser with a visible window")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("recmcp v%s\n", version)
		return
	}

	if err := run(*configPath, *dbPath, *httpAddr, *headed); err != nil {
		log.Fatalf("recmcp: %v", err)
	}
}

func run(configPath, dbPath, httpAddr string, headed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if headed {
		cfg.Headless = false
	}

	logger, err := logging.NewLogger("recmcp")
	if err != nil {
		// Fallback logger already reported the problem; keep going.
		fmt.Fprintf(os.Stderr, "recmcp: file logging unavailable: %v\n", err)
	}
	defer logger.Close()
	logger.Infof("starting recmcp v%s", version)

	kv, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer kv.Close()

	manager := browser.NewManager(cfg.BrowserTTL, cfg.Headless, logger)
	defer manager.Teardown()

	adapter := site.NewRec(manager, cfg.SiteURL, logger)
	flow := booking.NewFlow(booking.Params{
		Site:          adapter,
		KV:            kv,
		Log:           logger,
		RecEmail:      cfg.RecEmail,
		RecPassword:   cfg.RecPassword,
		DefaultCourt:  cfg.DefaultCourt,
		OperatingYear: cfg.OperatingYear,
	})

	var gen summary.Generator
	if cfg.OpenAIKey != "" {
		gen = summary.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
	}
	summarizer := summary.NewSummarizer(gen, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "Tennis Court Booking",
		Version: version,
	}, nil)

	mcptools.Register(server, mcptools.Deps{
		Flow:       flow,
		Manager:    manager,
		KV:         kv,
		Summarizer: summarizer,
		Config:     cfg,
		Log:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpAddr != "" {
		return serveHTTP(ctx, httpAddr, server, cfg, kv, logger)
	}

	logger.Infof("serving MCP over stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func serveHTTP(ctx context.Context, addr string, server *mcp.Server, cfg *config.Config, kv store.KV, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.HandleFunc("/authenticate", authenticateHandler(cfg, kv, logger))

	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Infof("serving MCP over HTTP on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// authenticateHandler registers a session for an allow-listed user.
// The login frontend completes the OAuth dance itself and posts the
// resulting identity here.
func authenticateHandler(cfg *config.Config, kv store.KV, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var payload struct {
			UserID string `json:"userId"`
			Email  string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if payload.UserID == "" || payload.Email == "" {
			http.Error(w, "userId and email are required", http.StatusBadRequest)
			return
		}

		if !auth.Authorized(payload.Email, cfg.AuthorizedEmails) {
			logger.Warnf("unauthorized authentication attempt: %s", payload.Email)
			http.Error(w, fmt.Sprintf("unauthorized user: %s", payload.Email), http.StatusForbidden)
			return
		}

		if err := auth.StoreSession(r.Context(), kv, payload.UserID, payload.Email); err != nil {
			logger.Errorf("failed to store session for %s: %v", payload.Email, err)
			http.Error(w, "failed to store session", http.StatusInternalServerError)
			return
		}

		logger.Infof("session stored for %s", payload.Email)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Authentication successful")
	}
}
