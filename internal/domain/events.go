package domain

import "strconv"

// EventType enumerates the events the engine publishes to a room channel.
type EventType string

const (
	EventNextQuestionMultipleChoice EventType = "NEXT_QUESTION_MULTIPLE_CHOICE"
	EventNextQuestionShortAnswer    EventType = "NEXT_QUESTION_SHORT_ANSWER"
	EventNextQuestionEssay          EventType = "NEXT_QUESTION_ESSAY"
	EventAnswerResult               EventType = "ANSWER_RESULT"
	EventLifeAttack                 EventType = "LIFE_ATTACK"
	EventGameReward                 EventType = "GAME_REWARD"
)

// EventMessage is the envelope published for every game event.
type EventMessage struct {
	Event  EventType `json:"event"`
	RoomID int64     `json:"roomId"`
	Data   any       `json:"data"`
}

// GameChannel is the pub/sub channel key for a room.
func GameChannel(roomID int64) string {
	return "game:" + strconv.FormatInt(roomID, 10)
}

// PublicOption is a multiple-choice option as shown to players, without the
// correctness flag.
type PublicOption struct {
	Number  int    `json:"optionNumber"`
	Content string `json:"content"`
}

// QuestionPayload announces the next quiz. Options is only set for
// multiple-choice questions.
type QuestionPayload struct {
	QuizID   int64          `json:"quizId"`
	Question string         `json:"question"`
	Options  []PublicOption `json:"options,omitempty"`
}

// ResultPayload reports the outcome of one submission. Score is only set for
// essay submissions.
type ResultPayload struct {
	QuizID int64  `json:"quizId"`
	Result string `json:"result,omitempty"`
	Sender string `json:"sender"`
	Score  *int   `json:"score,omitempty"`
}

// AttackPayload reports a life loss and the updated member list.
type AttackPayload struct {
	AttackedMemberID int64          `json:"attackedMemberId"`
	Members          []MemberStatus `json:"memberList"`
}

// RewardPayload closes a game. Winner and Loser are -1/-1 on a draw.
type RewardPayload struct {
	Winner int64 `json:"winner"`
	Loser  int64 `json:"loser"`
}
