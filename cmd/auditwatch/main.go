package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"salgados/internal/audit"
	"salgados/internal/config"
	"salgados/internal/kafka"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := &audit.LogProcessor{Filter: cfg.FilterWord}
	handler := kafka.ConsumerGroupHandler{
		Handle: func(rec audit.Record) {
			_ = printer.Process([]audit.Record{rec})
		},
	}
	log.Printf("Watching topic %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	if err := kafka.StartConsumer(ctx, nil, cfg.KafkaBrokers, cfg.KafkaGroupID, []string{cfg.KafkaTopic}, handler); err != nil {
		log.Fatalf("Consumer stopped: %v", err)
	}
}
