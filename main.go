package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Aashish23092/tax-form-extraction/config"
	"github.com/Aashish23092/tax-form-extraction/handler"
	"github.com/Aashish23092/tax-form-extraction/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig(os.Getenv("TAXOCR_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize service layer; engines are probed once here
	taxService, engines, err := service.NewFromConfig(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tax service: %v", err)
	}
	for _, e := range engines {
		log.Printf("OCR engine %s available=%t %s", e.Name, e.Available, e.Error)
	}

	// Initialize handler layer
	taxHandler := handler.NewTaxHandler(taxService, engines, cfg.Server.MaxFileSize, logger)
	router := handler.NewRouter(taxHandler, 32<<20)

	// Start server
	log.Printf("Starting Tax Form Extraction Service on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
