// versus-scan reads scanned product codes from stdin, one per line, and adds
// each product to a comparison session.
//
// Usage:
//
//	versus-scan --api http://localhost:8700 [--session <id>] < codes.txt
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/MikeSquared-Agency/Versus/internal/scan"
)

type scanResponse struct {
	Outcome string `json:"outcome"`
	Session struct {
		Category string `json:"category"`
		Products []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"products"`
	} `json:"session"`
}

var (
	apiFlag = &cli.StringFlag{
		Name:    "api",
		Usage:   "Versus API base URL",
		Value:   "http://localhost:8700",
		Sources: cli.EnvVars("VERSUS_API_URL"),
	}

	sessionFlag = &cli.StringFlag{
		Name:  "session",
		Usage: "Session to add products to (optional, a new one is created when empty)",
	}

	clientIDFlag = &cli.StringFlag{
		Name:  "client-id",
		Usage: "Value sent as X-Client-ID",
		Value: "versus-scan",
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}
)

func main() {
	cmd := &cli.Command{
		Name:   "versus-scan",
		Usage:  "Add scanned products to a Versus comparison session",
		Flags:  []cli.Flag{apiFlag, sessionFlag, clientIDFlag, debugFlag},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool(debugFlag.Name) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c := &client{
		base:     strings.TrimRight(cmd.String(apiFlag.Name), "/"),
		clientID: cmd.String(clientIDFlag.Name),
		http:     &http.Client{Timeout: 10 * time.Second},
	}

	id := cmd.String(sessionFlag.Name)
	if id == "" {
		var err error
		id, err = c.createSession(ctx)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		logger.Info("session created", "session", id)
	}

	sc := scan.NewLineScanner(os.Stdin)
	codes, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("start scanner: %w", err)
	}

	for code := range codes {
		logger.Debug("code read", "code", code)
		resp, err := c.scan(ctx, id, code)
		if err != nil {
			logger.Error("scan failed", "code", code, "error", err)
			continue
		}
		logger.Info("scanned",
			"product", scan.ExtractProductID(code),
			"outcome", resp.Outcome,
			"category", resp.Session.Category,
			"products", len(resp.Session.Products),
		)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read codes: %w", err)
	}
	fmt.Println(id)
	return nil
}

type client struct {
	base     string
	clientID string
	http     *http.Client
}

func (c *client) createSession(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/sessions", nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *client) scan(ctx context.Context, sessionID, code string) (*scanResponse, error) {
	var out scanResponse
	body := map[string]string{"code": code}
	if err := c.post(ctx, "/api/v1/sessions/"+sessionID+"/scan", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("versus: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}
