package cli

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lfti/trustindex/pkg/data"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func scoresAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		scores, err := data.GetLatestScores(db)
		if err != nil {
			slog.Error("failed to get latest scores", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get scores")
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}
}

func sourceAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id parameter required")
			return
		}

		rec, err := data.GetSource(db, id)
		if err != nil {
			slog.Error("failed to get source", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get source")
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "unknown source: "+id)
			return
		}

		scores, err := data.GetScoreHistory(db, id, queryParamInt(r, "limit", 10))
		if err != nil {
			slog.Error("failed to get score history", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get score history")
			return
		}

		writeJSON(w, http.StatusOK, &SourceDetail{Source: rec, Scores: scores})
	}
}

func rankingsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ranking, err := data.GetRanking(db, queryParamInt(r, "limit", queryResultLimitDefault))
		if err != nil {
			slog.Error("failed to get ranking", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get ranking")
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}

func summaryAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s, err := data.GetSummary(db)
		if err != nil {
			slog.Error("failed to get summary", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get summary")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func gradesAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		dist, err := data.GetGradeDistribution(db)
		if err != nil {
			slog.Error("failed to get grade distribution", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get grade distribution")
			return
		}
		writeJSON(w, http.StatusOK, dist)
	}
}

func runsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := data.GetRuns(db, queryParamInt(r, "limit", 20))
		if err != nil {
			slog.Error("failed to get runs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get runs")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func exportAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		scores, err := data.GetLatestScores(db)
		if err != nil {
			slog.Error("failed to get latest scores", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get scores")
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trustindex.csv"`)
		if err := writeScoresCSV(w, scores); err != nil {
			slog.Error("failed to write csv export", "error", err)
		}
	}
}
