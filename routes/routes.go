package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tcgarena/tcg-arena/handlers"
	"github.com/tcgarena/tcg-arena/middleware"
)

// SetupRoutes wires all HTTP endpoints. Reads are public, mutations
// require an organizer or admin token.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	matchHandler *handlers.MatchHandler,
	bracketHandler *handlers.BracketHandler,
	playerHandler *handlers.PlayerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	organizerOnly := func(r chi.Router) chi.Router {
		r.Use(auth.Authenticate)
		r.Use(auth.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))
		return r
	}

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", playerHandler.GetByIDHandler)
		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/", playerHandler.CreateHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/progress", tournamentHandler.ProgressHandler)
		r.Get("/{tournamentID}/stats", tournamentHandler.StatsHandler)
		r.Get("/{tournamentID}/standings", tournamentHandler.StandingsHandler)
		r.Get("/{tournamentID}/standings/export", tournamentHandler.ExportStandingsHandler)
		r.Get("/{tournamentID}/standings/{playerID}", tournamentHandler.PlayerStandingHandler)
		r.Get("/{tournamentID}/transitions", tournamentHandler.TransitionsHandler)
		r.Get("/{tournamentID}/bracket", bracketHandler.StructureHandler)
		r.Get("/{tournamentID}/rounds/{round}", bracketHandler.RoundHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournamentHandler)
		r.Get("/{tournamentID}/registrations", registrationHandler.ListHandler)
		r.Get("/{tournamentID}/registrations/counts", registrationHandler.CountsHandler)

		// Players sign themselves up; any authenticated role may register.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{tournamentID}/registrations", registrationHandler.RegisterHandler)
		})

		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)

			r.Post("/{tournamentID}/registration/open", tournamentHandler.OpenRegistrationHandler)
			r.Post("/{tournamentID}/registration/close", tournamentHandler.CloseRegistrationHandler)
			r.Post("/{tournamentID}/start", tournamentHandler.StartHandler)
			r.Post("/{tournamentID}/advance-round", tournamentHandler.AdvanceRoundHandler)
			r.Post("/{tournamentID}/complete", tournamentHandler.CompleteHandler)
			r.Post("/{tournamentID}/cancel", tournamentHandler.CancelHandler)

			r.Post("/{tournamentID}/registrations/approve-all", registrationHandler.ApproveAllHandler)
			r.Post("/{tournamentID}/registrations/bulk-fill", registrationHandler.BulkFillHandler)
			r.Post("/{tournamentID}/registrations/bulk-check-in", registrationHandler.BulkCheckInHandler)
		})
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{registrationID}/cancel", registrationHandler.CancelHandler)
			r.Post("/{registrationID}/check-in", registrationHandler.CheckInHandler)
			r.Post("/{registrationID}/check-out", registrationHandler.CheckOutHandler)
		})
		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/{registrationID}/approve", registrationHandler.ApproveHandler)
			r.Post("/{registrationID}/reject", registrationHandler.RejectHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByIDHandler)
		r.Get("/{matchID}/feeders", bracketHandler.FeedersHandler)
		r.Group(func(r chi.Router) {
			organizerOnly(r)
			r.Post("/{matchID}/start", matchHandler.StartHandler)
			r.Post("/{matchID}/result", matchHandler.ReportResultHandler)
			r.Post("/{matchID}/forfeit", matchHandler.ForfeitHandler)
			r.Post("/{matchID}/cancel", matchHandler.CancelHandler)
			r.Post("/{matchID}/reset", matchHandler.ResetHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
