package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventGameRecorded        EventType = "game_recorded"
	EventHighScore           EventType = "high_score"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventChallengeCompleted  EventType = "challenge_completed"
)

// Event represents an immutable domain event published after a committed
// write. Notification consumers (chat layer, realtime stream, analytics)
// read these; the store itself never does.
type Event struct {
	Type       EventType             `json:"type"`
	Time       time.Time             `json:"time"`
	UserID     UserID                `json:"user_id"`
	Score      int64                 `json:"score,omitempty"`
	ScoreDelta int64                 `json:"score_delta,omitempty"`
	WinStreak  int                   `json:"win_streak,omitempty"`
	Difficulty Difficulty            `json:"difficulty,omitempty"`
	Unlock     AchievementDescriptor `json:"unlock,omitempty"`
	Challenge  ChallengeType         `json:"challenge,omitempty"`
	Target     int64                 `json:"target,omitempty"`
}

func NewGameRecorded(r GameResult, streak int) Event {
	return Event{Type: EventGameRecorded, Time: time.Now().UTC(), UserID: r.UserID, Score: r.Score, WinStreak: streak, Difficulty: r.Difficulty}
}

func NewHighScore(user UserID, score, delta int64) Event {
	return Event{Type: EventHighScore, Time: time.Now().UTC(), UserID: user, Score: score, ScoreDelta: delta}
}

func NewAchievementUnlocked(user UserID, d AchievementDescriptor) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Unlock: d}
}

func NewChallengeCompleted(user UserID, p ChallengeProgress) Event {
	return Event{Type: EventChallengeCompleted, Time: time.Now().UTC(), UserID: user, Challenge: p.Type, Score: p.Current, Target: p.Target}
}
