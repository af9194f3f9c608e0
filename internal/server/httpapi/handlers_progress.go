package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/cyberguard/internal/server/models"
)

type quizRequest struct {
	QuizID string  `json:"quizId"`
	Score  float64 `json:"score"`
}

type flashcardRequest struct {
	CardID string `json:"cardId"`
}

type progressResponse struct {
	Progress *models.Progress `json:"progress"`
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	p, err := s.progress.GetProgress(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Progress: p})
}

func (s *Server) handleRecordQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	p, err := s.progress.RecordQuiz(r.Context(), userID, req.QuizID, req.Score)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Progress: p})
}

func (s *Server) handleRecordFlashcard(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	p, err := s.progress.RecordFlashcard(r.Context(), userID, req.CardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Progress: p})
}
