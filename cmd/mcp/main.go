// Digital twin MCP server - exposes the twin formulas and persona proxy as
// MCP tools for LLMs over stdio.
package main

import (
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/emilio-vasquez/digitaltwin/internal/logging"
	"github.com/emilio-vasquez/digitaltwin/internal/mcpserver"
)

func main() {
	// stdout carries the protocol
	logger := logging.NewWithWriter(os.Stderr, envOrDefault("LOG_LEVEL", "info"), envOrDefault("LOG_FORMAT", "text"))

	timeout, err := time.ParseDuration(envOrDefault("TWIN_PROXY_TIMEOUT", "30s"))
	if err != nil {
		logger.Error("invalid TWIN_PROXY_TIMEOUT", "error", err)
		os.Exit(1)
	}

	cfg := mcpserver.Config{
		ProxyURL: envOrDefault("TWIN_PROXY_URL", "http://localhost:8787"),
		Origin:   envOrDefault("TWIN_ORIGIN", "http://localhost:8787"),
		Timeout:  timeout,
	}
	logger.Info("starting digitaltwin MCP server", "version", mcpserver.Version, "proxy_url", cfg.ProxyURL)

	s := mcpserver.NewMCPServer(cfg)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
