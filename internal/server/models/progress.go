package models

import "time"

// Progress is the per-user learning record. There is exactly one per user.
type Progress struct {
	UserID             string              `json:"userId"`
	QuizzesCompleted   int                 `json:"quizzesCompleted"`
	QuizScores         []QuizScore         `json:"quizScores"`
	FlashcardsReviewed int                 `json:"flashcardsReviewed"`
	ReviewedFlashcards []ReviewedFlashcard `json:"reviewedFlashcards"`
	Streak             int                 `json:"streak"`
	LastActive         time.Time           `json:"lastActive"`
}

// QuizScore is one entry of the append-only quiz log.
type QuizScore struct {
	QuizID      string    `json:"quizId"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// ReviewedFlashcard records the latest review of a distinct card.
type ReviewedFlashcard struct {
	CardID       string    `json:"cardId"`
	LastReviewed time.Time `json:"lastReviewed"`
}
