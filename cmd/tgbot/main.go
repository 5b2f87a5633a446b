package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/sumeetsaini/bucketbot/cmd/tgbot/internal/bot"
	"github.com/sumeetsaini/bucketbot/internal/config"
	"github.com/sumeetsaini/bucketbot/internal/service"
	"github.com/sumeetsaini/bucketbot/internal/storage"
	"github.com/sumeetsaini/bucketbot/internal/wellapi"
	"github.com/sumeetsaini/bucketbot/pkg/msgstore"
	"github.com/sumeetsaini/bucketbot/pkg/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var store *storage.Storage
	if cfg.Debug {
		store, err = storage.NewTempStorage()
	} else {
		store, err = storage.NewStorage(cfg.DBPath)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	msgs := msgstore.New()
	if err := msgs.LoadBytes(bot.DefaultMessages); err != nil {
		return err
	}
	if cfg.MsgsPath != "" {
		watcher, err := msgs.Watch(cfg.MsgsPath)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	wellClient := wellapi.NewClient(wellapi.Config{
		BaseURL:     cfg.WellAPIURL,
		APIKey:      cfg.WellAPIKey,
		HTTPTimeout: cfg.HTTPTimeout,
	})
	svc := service.NewService(store, wellClient)
	contentQueue := queue.NewContentQueue(queue.Config{})
	b, err := bot.NewBot(bot.Config{
		Token:          cfg.TgToken,
		Service:        svc,
		ContentQueue:   contentQueue,
		Msgs:           msgs,
		AuthorizedUser: cfg.AuthorizedUserID,
		Debug:          cfg.Debug,
	})
	if err != nil {
		return err
	}
	go b.Run()

	if cfg.HealthAddr != "" {
		go runHealthServer(cfg.HealthAddr)
	}

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, syscall.SIGINT, syscall.SIGTERM)

	<-terminate
	b.Stop()

	return nil
}

func runHealthServer(addr string) {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Println("health server: ", err)
	}
}
