package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"salgados/internal/audit"
	"salgados/internal/config"
	"salgados/internal/db"
	"salgados/internal/handler"
	"salgados/internal/identity"
	"salgados/internal/repository"
	"salgados/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	ctx := context.Background()

	handle, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Error opening %s store: %v", cfg.StoreDriver, err)
	}
	defer handle.Close()

	repos := repository.New(handle.Store, cfg.StrictVersions)
	if err := identity.Seed(ctx, repos.Admins, repos.Users, time.Now().UTC()); err != nil {
		log.Fatalf("Error seeding accounts: %v", err)
	}

	processors := []audit.Processor{&audit.LogProcessor{Filter: cfg.FilterWord}}
	if handle.SQL != nil {
		processors = append(processors, audit.NewSQLProcessor(handle.SQL, handle.Driver))
	}
	pool := audit.NewPool(audit.PoolConfig{
		BatchSize:   cfg.AuditBatchSize,
		Timeout:     cfg.AuditTimeout,
		ChannelSize: cfg.AuditChannelSize,
	}, processors...)
	poolCtx, poolCancel := context.WithCancel(ctx)
	pool.Start(poolCtx, cfg.AuditWorkers)
	defer pool.Shutdown(poolCancel)

	h := handler.New(service.New(repos, service.WithAudit(pool)), handle.Store, os.Stdout)

	fmt.Println("Salgados da Sara. Digite 'help' para ver os comandos.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := h.Execute(ctx, fields[0], fields[1:])
		if errors.Is(err, handler.ErrExit) {
			return
		}
		if err != nil {
			fmt.Println(err)
		}
	}
}
