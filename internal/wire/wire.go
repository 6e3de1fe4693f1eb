// internal/wire/wire.go
package wire

import (
	"net/http"

	"transit-booking/internal/adaptor"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/events"
	"transit-booking/internal/usecase"
	"transit-booking/pkg/identity"
	"transit-booking/pkg/middleware"
	"transit-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	publisher events.Publisher,
	deduper usecase.DeliveryChecker,
	verifier identity.Verifier,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, publisher, deduper, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, verifier, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	verifier identity.Verifier,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireSchedule(r, handler.Schedule, handler.Reservation, verifier, logger)
	wireReservation(r, handler.Reservation, verifier, logger)
	wirePayment(r, handler.Payment, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
