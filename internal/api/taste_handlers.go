package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mimyapp/tasteranker/internal/taste"
)

// TasteProfileResponse represents the response for the taste profile endpoint.
type TasteProfileResponse struct {
	UserID    int64        `json:"user_id"`
	Version   int          `json:"version"`
	Scores    taste.Vector `json:"scores"`
	TypeCode  string       `json:"type_code"`
	Stability float64      `json:"stability"`
	ClusterID int          `json:"cluster_id"`
	Cluster   *ClusterInfo `json:"cluster,omitempty"`
	UpdatedAt string       `json:"updated_at"`
}

// ClusterInfo is the public view of a taste cluster.
type ClusterInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
}

// QuizRequest is the body for quiz submission. Answers are keyed by
// question number ("1".."21") with Likert values 1..5.
type QuizRequest struct {
	Answers map[string]int `json:"answers"`
}

// TasteHandlers holds dependencies for taste profile HTTP handlers.
type TasteHandlers struct {
	profiles taste.Store
	clusters *taste.ClusterTable
}

// NewTasteHandlers creates a new TasteHandlers instance. The cluster table
// may be nil, in which case cluster metadata is omitted from responses and
// quiz results fall back to the default cluster.
func NewTasteHandlers(profiles taste.Store, clusters *taste.ClusterTable) *TasteHandlers {
	return &TasteHandlers{profiles: profiles, clusters: clusters}
}

// Handle dispatches /taste/{userId} and /taste/{userId}/quiz.
func (h *TasteHandlers) Handle(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/taste/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "User ID is required")
		return
	}

	userID, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil || userID <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "User ID must be a positive integer")
		return
	}

	if len(pathParts) > 1 && pathParts[1] == "quiz" {
		if r.Method != http.MethodPost {
			WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
			return
		}
		h.submitQuiz(w, r, userID)
		return
	}

	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	h.getProfile(w, r, userID)
}

// getProfile returns the stored taste profile with its derived type code.
func (h *TasteHandlers) getProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to retrieve taste profile", "error", err, "user_id", userID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve taste profile")
		return
	}
	if profile == nil {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeProfileNotFound, "User has no taste profile")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, h.profileResponse(profile))
}

// submitQuiz scores a 21-question quiz, persists the resulting profile and
// returns it. Resubmitting overwrites the previous profile.
func (h *TasteHandlers) submitQuiz(w http.ResponseWriter, r *http.Request, userID int64) {
	var req QuizRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}

	answers, err := parseQuizAnswers(req.Answers)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAnswers, err.Error())
		return
	}

	result := taste.ScoreQuiz(answers, h.clusters)

	profile := &taste.Profile{
		UserID:    userID,
		Version:   taste.ProfileVersion,
		Scores:    result.Vector,
		ClusterID: result.ClusterID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.profiles.SaveProfile(r.Context(), profile); err != nil {
		slog.ErrorContext(r.Context(), "failed to save taste profile", "error", err, "user_id", userID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to save taste profile")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, h.profileResponse(profile))
}

func (h *TasteHandlers) profileResponse(profile *taste.Profile) TasteProfileResponse {
	code := taste.ComputeType(profile.Scores)
	resp := TasteProfileResponse{
		UserID:    profile.UserID,
		Version:   profile.Version,
		Scores:    profile.Scores,
		TypeCode:  code.String(),
		Stability: code.Stability,
		ClusterID: profile.ClusterID,
		UpdatedAt: profile.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if h.clusters != nil {
		if meta, ok := h.clusters.Metadata(profile.ClusterID); ok {
			resp.Cluster = &ClusterInfo{ID: meta.ID, Name: meta.Name, Tagline: meta.Tagline}
		}
	}
	return resp
}

// parseQuizAnswers converts string-keyed answers to question-indexed form
// and validates question numbers and Likert values. Missing questions are
// allowed; the fold treats them as neutral.
func parseQuizAnswers(raw map[string]int) (map[int]int, error) {
	answers := make(map[int]int, len(raw))
	for key, value := range raw {
		q, err := strconv.Atoi(key)
		if err != nil || q < 1 || q > taste.NumQuestions {
			return nil, fmt.Errorf("question %q is out of range 1..%d", key, taste.NumQuestions)
		}
		if value < 1 || value > 5 {
			return nil, fmt.Errorf("answer for question %d must be between 1 and 5", q)
		}
		answers[q] = value
	}
	return answers, nil
}
