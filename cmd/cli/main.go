// Command cli runs the order assistant as an interactive terminal chat
// against in-memory stores. Useful for prompt work without Redis or a phone.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/otrade-bot/server/internal/core"
	"github.com/otrade-bot/server/internal/engine"
	"github.com/otrade-bot/server/internal/extract"
	"github.com/otrade-bot/server/internal/finalize"
	"github.com/otrade-bot/server/internal/pdf"
	"github.com/otrade-bot/server/internal/repo"
	logx "github.com/otrade-bot/server/pkg/logger"
)

type cliConfig struct {
	Provider  extract.ProviderConfig
	Extractor extract.Config
	Prompt    extract.PromptConfig
	Engine    engine.Config
	PDF       pdf.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg cliConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.Development})

	modelClient, err := extract.NewModelClient(ctx, cfg.Extractor, cfg.Provider)
	if err != nil {
		log.Fatalf("Failed to initialise model client: %v", err)
	}
	extractor := extract.NewLLMExtractor(modelClient, cfg.Extractor, cfg.Prompt)

	renderer, err := pdf.NewFpdfRenderer(cfg.PDF)
	if err != nil {
		log.Fatalf("Failed to initialise pdf renderer: %v", err)
	}

	eng := engine.New(
		cfg.Engine,
		repo.NewMemorySessionStore(),
		repo.NewMemoryConversationStore(),
		extractor,
		finalize.NewCoordinator(renderer, repo.NewMemoryInvoiceStore()),
		nil,
	)

	sessionID := uuid.NewString()
	fmt.Printf("Order assistant ready (session %s). Type your message, /reset for a new session, /quit to exit.\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/reset":
			next, err := eng.Reset(ctx, sessionID)
			if err != nil {
				fmt.Printf("reset failed: %v\n", err)
				continue
			}
			sessionID = next
			fmt.Printf("new session %s\n", sessionID)
			continue
		}

		reply, err := eng.ProcessTurn(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", reply.Text)
		if reply.Finalized {
			fmt.Printf("[invoice %s]\n", reply.InvoiceNumber)
		}
	}
}
