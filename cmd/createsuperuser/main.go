// Command createsuperuser provisions an administrator account in the
// configured storage backend.
package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/recipebook/internal/server"
	"github.com/dmitrijs2005/recipebook/internal/server/admin"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/services"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	storage, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer storage.Close()

	us := services.NewUserService(storage.Conn, storage.Repomanager, cfg)

	if _, err := admin.CreateSuperuser(ctx, bufio.NewReader(os.Stdin), os.Stdout, us); err != nil {
		log.Printf("Error: %v", err)
		storage.Close()
		os.Exit(1)
	}
}
