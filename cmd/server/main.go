package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	approuters "github.com/manumay1962/CHAT-APP/internal/app_routers"
	"github.com/manumay1962/CHAT-APP/internal/configuration"
)

func main() {
	// .env is optional; secrets may come from the real environment.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	container, err := configuration.BuildContainer(configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
