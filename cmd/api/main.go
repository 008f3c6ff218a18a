package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardforge/internal/card"
	"cardforge/internal/config"
	"cardforge/internal/export"
	"cardforge/internal/history"
	"cardforge/internal/llm"
	"cardforge/internal/preset"
	"cardforge/internal/server"
	"cardforge/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	provider, err := card.NewFileProvider(cfg.CardsDir)
	if err != nil {
		log.Fatalf("cards: %v", err)
	}

	var client llm.Client
	switch cfg.LLMProvider {
	case "gemini":
		client, err = llm.NewGeminiClient(context.Background(), cfg.LLMModel)
		if err != nil {
			log.Fatalf("llm: %v", err)
		}
	default:
		client = llm.NewFakeClient()
	}
	defer client.Close()

	var artifacts *export.ArtifactStore
	if cfg.Artifact.Enabled {
		artifacts, err = export.NewArtifactStore(cfg.Artifact.S3)
		if err != nil {
			log.Printf("export: artifact store disabled: %v", err)
			artifacts = nil
		}
	}

	histories := history.NewFromEnv(cfg.HistoryDir)
	defer histories.Close()

	presets := preset.NewStore(cfg.PresetsDir)
	sess := session.New(session.Options{
		Provider:  provider,
		Presets:   presets,
		Histories: histories,
		Client:    client,
		Artifacts: artifacts,
		UserName:  cfg.UserName,
	})

	api := newAPIServer(sess, provider, presets)
	srv := server.New(cfg.Port, buildMux(api))

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
}
