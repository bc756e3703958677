package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "travelops/internal/adapters/http_server"
	"travelops/internal/adapters/itineraryapi"
	"travelops/internal/adapters/leadapi"
	"travelops/internal/adapters/observability"
	"travelops/internal/adapters/pdf"
	"travelops/internal/adapters/redisstore"
	"travelops/internal/app"
	"travelops/internal/render"
	"travelops/internal/shared"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// store
	store := redisstore.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := store.Ping(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		cancel()
	}
	log.Info().Msg("redis connection ok")

	// external services
	crm, err := leadapi.New(cfg.CRMBase, cfg.CRMKey, cfg.ClientRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("crm client init failed")
	}
	itineraries, err := itineraryapi.New(cfg.ItineraryBase, cfg.ClientRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("itinerary client init failed")
	}
	printer := pdf.New(cfg.ChromePath)

	// application
	reconciler := app.NewReconciler(store, itineraries)
	builder := app.NewQuotationBuilder(store, crm, itineraries)
	renderer := render.New(render.Company{Name: cfg.CompanyName, Line: cfg.CompanyLine})
	dispatcher := app.NewDispatcher(builder, renderer, store, crm, crm, crm)
	confirm := app.NewConfirmationStateMachine(store, crm, dispatcher)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Reconciler: reconciler,
		Confirm:    confirm,
		Builder:    builder,
		Dispatcher: dispatcher,
		Renderer:   renderer,
		Settings:   store,
		Printer:    printer,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
