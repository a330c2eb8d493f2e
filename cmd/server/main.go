package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/app"
	"github.com/ZidanAK22/RateYourGroupMates/internal/handlers"
)

func main() {
	service, err := app.NewService("config.toml")
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	ratingHandler := handlers.NewRatingHandler(service)

	http.HandleFunc("GET /api/v1/classes", ratingHandler.HandleListClasses)
	http.HandleFunc("GET /api/v1/classes/{class}/groups", ratingHandler.HandleListGroups)
	http.HandleFunc("GET /api/v1/groups/{group}/participants", ratingHandler.HandleListParticipants)
	http.HandleFunc("POST /api/v1/ratings", ratingHandler.HandleSubmitRating)
	http.HandleFunc("GET /api/v1/recap", ratingHandler.HandleRecap)
	http.HandleFunc("GET /api/v1/me", ratingHandler.HandleMe)
	http.HandleFunc("POST /api/v1/signout", ratingHandler.HandleSignOut)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting rateyourgroupmates server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Server failed: %v", err)
	}
}
