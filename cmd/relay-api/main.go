package main

import (
	"context"
	"net/http"
	"os"

	httpadapter "github.com/relaylabs/relay-agent/internal/adapters/http"
	"github.com/relaylabs/relay-agent/internal/adapters/llm"
	firestorestore "github.com/relaylabs/relay-agent/internal/adapters/storage/firestore"
	memstore "github.com/relaylabs/relay-agent/internal/adapters/storage/memory"
	"github.com/relaylabs/relay-agent/internal/app/chat"
	"github.com/relaylabs/relay-agent/internal/app/tools"
	"github.com/relaylabs/relay-agent/internal/config"
	"github.com/relaylabs/relay-agent/internal/domain"
	"github.com/relaylabs/relay-agent/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	observability.SetDebug(cfg.Debug)
	log := observability.Component("main")

	var (
		model domain.ModelClient
		err   error
	)

	if cfg.UseMockLLM {
		log.Info("using mock model client")
		model = llm.NewMockModel()
	} else {
		log.Info("using gemini model client", "model", cfg.ModelName)
		model, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Error("initializing gemini client", "error", err)
			os.Exit(1)
		}
	}

	var chatLog domain.ChatLog

	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using firestore chat log", "project", cfg.GCPProjectID)
		chatLog, err = firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Error("initializing firestore store", "error", err)
			os.Exit(1)
		}
	default:
		log.Info("using in-memory chat log")
		chatLog = memstore.NewLogStore()
	}

	svc := chat.NewService(model, chatLog, tools.NewRegistry())
	handler := httpadapter.NewServer(svc)

	addr := ":" + cfg.Port
	log.Info("relay api listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
