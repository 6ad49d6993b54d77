package domain

import "time"

// MaxRatingScore is the default upper bound for rating scores.
const MaxRatingScore = 10

// Rating is an immutable peer-rating record. Once appended it is never
// mutated or deleted.
type Rating struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Rater     Principal `json:"rater"`
	Ratee     Principal `json:"ratee"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
