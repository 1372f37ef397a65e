package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/report"
)

const defaultLeaderboardLimit = 10

// LeaderboardHandler serves GET /leaderboard?limit=N[&format=xlsx].
func LeaderboardHandler(service *app.QuizService, log zerolog.Logger) http.HandlerFunc {
	log = log.With().Str("component", "leaderboard").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := defaultLeaderboardLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		lb, err := service.Leaderboard(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("load leaderboard failed")
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}

		if r.URL.Query().Get("format") == "xlsx" {
			w.Header().Set("Content-Type", report.ContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
			if err := report.WriteLeaderboard(w, lb); err != nil {
				log.Error().Err(err).Msg("write leaderboard workbook failed")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lb); err != nil {
			log.Debug().Err(err).Msg("write leaderboard failed")
		}
	}
}
