package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/mapboot/internal/adapters/postgres"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|list>")
	}

	switch os.Args[1] {
	case "list":
		all, err := migrations.All()
		if err != nil {
			log.Fatalf("load migrations: %v", err)
		}
		for _, m := range all {
			fmt.Println(m.Name)
		}
		return
	case "up":
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	cfg, err := config.Load("mapboot-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	err = db.Migrate(ctx, func(name string) {
		fmt.Printf("OK  %s\n", name)
	})
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Println("all migrations applied")
}
