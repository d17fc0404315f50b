package domain

import "time"

// TotalSlots is the number of quiz slots in one game: five multiple-choice,
// three short-answer, one essay.
const TotalSlots = 9

// QuizKind tags the variant of a quiz item.
type QuizKind string

const (
	KindMultipleChoice QuizKind = "MULTIPLE_CHOICE"
	KindShortAnswer    QuizKind = "SHORT_ANSWER"
	KindEssay          QuizKind = "ESSAY"
)

// QuizOption is a single multiple-choice option. Exactly one option per
// question carries Correct=true.
type QuizOption struct {
	Number  int    `json:"optionNumber"`
	Content string `json:"content"`
	Correct bool   `json:"isCorrect"`
}

// QuizItem is a tagged quiz variant. Options is populated for
// multiple-choice items, Answer for short-answer items; an essay item
// carries only the question.
type QuizItem struct {
	QuizID   int64        `json:"quizId"`
	Kind     QuizKind     `json:"kind"`
	Question string       `json:"question"`
	Options  []QuizOption `json:"options,omitempty"`
	Answer   string       `json:"answer,omitempty"`
}

// QuizBank is the content drawn for one game before it starts.
type QuizBank struct {
	MultipleChoice []QuizItem
	ShortAnswer    []QuizItem
	Essay          QuizItem
}

// MemberStatus tracks one player inside a running game.
type MemberStatus struct {
	MemberID int64  `json:"memberId"`
	Nickname string `json:"nickname"`
	Life     int    `json:"life"`
}

// EssaySubmission is an accepted essay answer for the current round.
type EssaySubmission struct {
	MemberID    int64     `json:"memberId"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Member is a persistent account with a point balance.
type Member struct {
	MemberID int64
	Nickname string
	Point    int
}

// RoomStatus is the durable lifecycle state of a room.
type RoomStatus string

const (
	RoomInProgress RoomStatus = "IN_PROGRESS"
	RoomClosed     RoomStatus = "CLOSED"
)

// AnswerLogEntry is the immutable record of one evaluated submission.
type AnswerLogEntry struct {
	MemberID  int64
	QuizID    int64
	Answer    string
	Correct   bool
	CreatedAt time.Time
}

// GameData is the whole game record for one room. It is read and replaced
// wholesale on every mutation; the engine serializes writers per room.
type GameData struct {
	RoomID int64 `json:"roomId"`
	// AskedMask has bit i-1 set once slot i has been served. Bits are never
	// cleared while the game lives.
	AskedMask int `json:"askedMask"`
	// CurrentSlot is the slot in play, or 0 when no round is active.
	CurrentSlot      int               `json:"currentSlot"`
	Members          []MemberStatus    `json:"members"`
	EssaySubmissions []EssaySubmission `json:"essaySubmissions"`
	// Slots holds the nine quiz items, slot i at index i-1. Slots 1-5 are
	// multiple-choice, 6-8 short-answer, 9 essay.
	Slots []QuizItem `json:"slots"`
}

// NewGameData lays out a bank into the fixed slot order and seeds member
// lives. The bank must carry exactly five multiple-choice items, three
// short-answer items, and an essay item.
func NewGameData(roomID int64, bank QuizBank, players []Member, lives int) (GameData, error) {
	if len(bank.MultipleChoice) != 5 || len(bank.ShortAnswer) != 3 || bank.Essay.Question == "" {
		return GameData{}, ErrBankIncomplete
	}

	slots := make([]QuizItem, 0, TotalSlots)
	slots = append(slots, bank.MultipleChoice...)
	slots = append(slots, bank.ShortAnswer...)
	slots = append(slots, bank.Essay)

	members := make([]MemberStatus, 0, len(players))
	for _, p := range players {
		members = append(members, MemberStatus{
			MemberID: p.MemberID,
			Nickname: p.Nickname,
			Life:     lives,
		})
	}

	return GameData{
		RoomID:  roomID,
		Members: members,
		Slots:   slots,
	}, nil
}

// RemainingSlots lists the slots not yet served, in ascending order.
func (g *GameData) RemainingSlots() []int {
	var remaining []int
	for slot := 1; slot <= TotalSlots; slot++ {
		if g.AskedMask&(1<<(slot-1)) == 0 {
			remaining = append(remaining, slot)
		}
	}
	return remaining
}

// MarkAsked sets the served bit for slot.
func (g *GameData) MarkAsked(slot int) {
	g.AskedMask |= 1 << (slot - 1)
}

// QuizAt returns the item for a slot.
func (g *GameData) QuizAt(slot int) (QuizItem, bool) {
	if slot < 1 || slot > len(g.Slots) {
		return QuizItem{}, false
	}
	return g.Slots[slot-1], true
}

// Nickname resolves a member's display name, empty if absent.
func (g *GameData) Nickname(memberID int64) string {
	for _, m := range g.Members {
		if m.MemberID == memberID {
			return m.Nickname
		}
	}
	return ""
}

// HasEssaySubmission reports whether the member already submitted this round.
func (g *GameData) HasEssaySubmission(memberID int64) bool {
	for _, sub := range g.EssaySubmissions {
		if sub.MemberID == memberID {
			return true
		}
	}
	return false
}

// Clone deep-copies the record so callers can mutate it freely.
func (g GameData) Clone() GameData {
	out := g
	out.Members = append([]MemberStatus(nil), g.Members...)
	out.EssaySubmissions = append([]EssaySubmission(nil), g.EssaySubmissions...)
	out.Slots = make([]QuizItem, len(g.Slots))
	for i, slot := range g.Slots {
		slot.Options = append([]QuizOption(nil), slot.Options...)
		out.Slots[i] = slot
	}
	return out
}
