package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"battle-quiz-service/internal/domain"
)

// GameStore is the durable keyed storage for one GameData record per room.
// Records are replaced wholesale; the engine is the serialization point.
type GameStore interface {
	Get(ctx context.Context, roomID int64) (domain.GameData, error)
	Put(ctx context.Context, game domain.GameData) error
	Delete(ctx context.Context, roomID int64) error
}

// EventPublisher broadcasts an event to every subscriber of a room channel.
// Delivery is fire-and-forget; failures are logged and never retried.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, msg domain.EventMessage) error
}

// EssayScorer maps (question, free-text answer) to a score in [0,100]. It may
// be slow; the engine never holds a room lock across a call.
type EssayScorer interface {
	Score(ctx context.Context, question, answer string) (int, error)
}

// AnswerLogSink appends one record per evaluated submission. Failures are
// non-fatal to the round.
type AnswerLogSink interface {
	Append(ctx context.Context, entry domain.AnswerLogEntry) error
}

// MemberLedger resolves accounts and credits reward points. Idempotency of a
// credit is the ledger's concern; the engine issues one credit per player.
type MemberLedger interface {
	FindByID(ctx context.Context, memberID int64) (domain.Member, error)
	CreditPoints(ctx context.Context, memberID int64, amount int) error
}

// RoomRegistry flips the durable room status. A missing room record is fatal
// to the operation.
type RoomRegistry interface {
	SetStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error
}

// BankLoader draws the quiz content for a new game.
type BankLoader interface {
	LoadBank(ctx context.Context) (domain.QuizBank, error)
}

// EndCondition decides whether a game is over after a round resolved.
type EndCondition func(members []domain.MemberStatus) bool

// AnyLifeZero is the default end condition: the game ends once any player is
// out of lives.
func AnyLifeZero(members []domain.MemberStatus) bool {
	for _, m := range members {
		if m.Life <= 0 {
			return true
		}
	}
	return false
}

// Reward points settled at game end.
const (
	essayPassScore = 70

	rewardWinner = 300
	rewardLoser  = 100
	rewardDraw   = 100
)

// Deps bundles the collaborators of the engine.
type Deps struct {
	Store     GameStore
	Publisher EventPublisher
	Scorer    EssayScorer
	Timers    TimerScheduler
	AnswerLog AnswerLogSink
	Ledger    MemberLedger
	Rooms     RoomRegistry
	Banks     BankLoader
}

// Settings carries the externally configured game knobs.
type Settings struct {
	RoundTimeout time.Duration
	InitialLives int
	// End overrides the game-over policy; defaults to AnyLifeZero.
	End EndCondition
}

// GameService drives the battle quiz rounds of every room: it selects unseen
// quizzes, evaluates answers, races answers against the round countdown,
// keeps the life ledger, and settles rewards at game end.
//
// All mutations of one room's record happen under that room's mutex, so a
// correct answer and a timer expiry racing for the same round resolve exactly
// once; the loser observes the advanced round and no-ops.
type GameService struct {
	store     GameStore
	publisher EventPublisher
	scorer    EssayScorer
	timers    TimerScheduler
	answerLog AnswerLogSink
	ledger    MemberLedger
	rooms     RoomRegistry
	banks     BankLoader

	roundTimeout time.Duration
	initialLives int
	end          EndCondition

	now  func() time.Time
	pick func(n int) int

	mu        sync.Mutex
	roomLocks map[int64]*sync.Mutex
}

func NewGameService(deps Deps, settings Settings) *GameService {
	return newGameService(deps, settings, time.Now, rand.Intn)
}

// NewGameServiceWithClock is test-only: it fixes the clock and the random
// slot pick for deterministic rounds.
func NewGameServiceWithClock(deps Deps, settings Settings, now func() time.Time, pick func(n int) int) *GameService {
	return newGameService(deps, settings, now, pick)
}

func newGameService(deps Deps, settings Settings, now func() time.Time, pick func(n int) int) *GameService {
	if settings.RoundTimeout <= 0 {
		settings.RoundTimeout = 30 * time.Second
	}
	if settings.InitialLives <= 0 {
		settings.InitialLives = 3
	}
	if settings.End == nil {
		settings.End = AnyLifeZero
	}
	timers := deps.Timers
	if timers == nil {
		timers = NewQuizTimers()
	}
	return &GameService{
		store:        deps.Store,
		publisher:    deps.Publisher,
		scorer:       deps.Scorer,
		timers:       timers,
		answerLog:    deps.AnswerLog,
		ledger:       deps.Ledger,
		rooms:        deps.Rooms,
		banks:        deps.Banks,
		roundTimeout: settings.RoundTimeout,
		initialLives: settings.InitialLives,
		end:          settings.End,
		now:          now,
		pick:         pick,
		roomLocks:    make(map[int64]*sync.Mutex),
	}
}

// roomLock returns the mutex serializing all writers of one room.
func (s *GameService) roomLock(roomID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.roomLocks[roomID]
	if !ok {
		lk = &sync.Mutex{}
		s.roomLocks[roomID] = lk
	}
	return lk
}

// StartGame draws a quiz bank, resolves the players through the member
// ledger, and stores a fresh game record for the room.
func (s *GameService) StartGame(ctx context.Context, roomID int64, memberIDs []int64) error {
	lk := s.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	if _, err := s.store.Get(ctx, roomID); err == nil {
		return domain.ErrGameInProgress
	} else if !errors.Is(err, domain.ErrGameNotFound) {
		return err
	}

	players := make([]domain.Member, 0, len(memberIDs))
	for _, id := range memberIDs {
		member, err := s.ledger.FindByID(ctx, id)
		if err != nil {
			return err
		}
		players = append(players, member)
	}

	bank, err := s.banks.LoadBank(ctx)
	if err != nil {
		return err
	}
	game, err := domain.NewGameData(roomID, bank, players, s.initialLives)
	if err != nil {
		return err
	}
	if err := s.rooms.SetStatus(ctx, roomID, domain.RoomInProgress); err != nil {
		return err
	}
	return s.store.Put(ctx, game)
}

// PublishNextQuiz picks an unseen slot at random, persists the selection, and
// announces the question. Returns ErrNoRemainingQuiz once all nine slots have
// been served, without mutating or publishing anything.
func (s *GameService) PublishNextQuiz(ctx context.Context, roomID int64) error {
	lk := s.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	game, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	return s.nextQuizLocked(ctx, &game)
}

func (s *GameService) nextQuizLocked(ctx context.Context, game *domain.GameData) error {
	remaining := game.RemainingSlots()
	if len(remaining) == 0 {
		return domain.ErrNoRemainingQuiz
	}
	slot := remaining[s.pick(len(remaining))]

	game.MarkAsked(slot)
	game.CurrentSlot = slot
	game.EssaySubmissions = nil
	if err := s.store.Put(ctx, *game); err != nil {
		return err
	}

	quiz, _ := game.QuizAt(slot)
	s.publish(ctx, game.RoomID, domain.EventMessage{
		Event:  questionEvent(quiz.Kind),
		RoomID: game.RoomID,
		Data:   questionPayload(quiz),
	})

	roomID := game.RoomID
	s.timers.Arm(roomID, slot, s.roundTimeout, func() {
		s.resolveTimeout(roomID, slot)
	})
	return nil
}

// CheckAnswer evaluates one submission against the quiz currently in play.
// quizID must name the quiz the player is answering; a submission for an
// already-resolved round is silently dropped.
func (s *GameService) CheckAnswer(ctx context.Context, roomID, memberID, quizID int64, answer string) error {
	lk := s.roomLock(roomID)
	lk.Lock()

	game, err := s.store.Get(ctx, roomID)
	if err != nil {
		lk.Unlock()
		return err
	}
	quiz, ok := game.QuizAt(game.CurrentSlot)
	if !ok || quiz.QuizID != quizID {
		// Round already advanced; the late answer loses the race.
		lk.Unlock()
		return nil
	}

	if quiz.Kind == domain.KindEssay {
		if game.HasEssaySubmission(memberID) {
			lk.Unlock()
			return nil
		}
		slot := game.CurrentSlot
		lk.Unlock()
		return s.checkEssay(ctx, roomID, memberID, slot, quiz, answer)
	}
	defer lk.Unlock()

	correct := evaluateAnswer(quiz, answer)
	s.appendLog(ctx, domain.AnswerLogEntry{
		MemberID:  memberID,
		QuizID:    quiz.QuizID,
		Answer:    answer,
		Correct:   correct,
		CreatedAt: s.now(),
	})
	s.publish(ctx, roomID, domain.EventMessage{
		Event:  domain.EventAnswerResult,
		RoomID: roomID,
		Data: domain.ResultPayload{
			QuizID: quiz.QuizID,
			Result: resultText(quiz.Kind, correct, answer),
			Sender: game.Nickname(memberID),
		},
	})
	if !correct {
		return nil
	}
	return s.resolveAttackLocked(ctx, &game, memberID)
}

// checkEssay scores the submission with the room lock released, then
// re-acquires it and re-validates the round before accepting the entry.
func (s *GameService) checkEssay(ctx context.Context, roomID, memberID int64, slot int, quiz domain.QuizItem, answer string) error {
	score, err := s.scorer.Score(ctx, quiz.Question, answer)
	if err != nil {
		return err
	}
	correct := score >= essayPassScore

	s.appendLog(ctx, domain.AnswerLogEntry{
		MemberID:  memberID,
		QuizID:    quiz.QuizID,
		Answer:    answer,
		Correct:   correct,
		CreatedAt: s.now(),
	})

	lk := s.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	game, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if game.CurrentSlot != slot || game.HasEssaySubmission(memberID) {
		// Round resolved, or a concurrent submission from the same player
		// won while we were scoring.
		return nil
	}

	game.EssaySubmissions = append(game.EssaySubmissions, domain.EssaySubmission{
		MemberID:    memberID,
		Score:       score,
		SubmittedAt: s.now(),
	})
	if err := s.store.Put(ctx, game); err != nil {
		return err
	}

	s.publish(ctx, roomID, domain.EventMessage{
		Event:  domain.EventAnswerResult,
		RoomID: roomID,
		Data: domain.ResultPayload{
			QuizID: quiz.QuizID,
			Sender: game.Nickname(memberID),
			Score:  &score,
		},
	})

	if len(game.EssaySubmissions) < 2 {
		return nil
	}
	return s.resolveEssayLocked(ctx, &game)
}

// resolveAttackLocked ends a multiple-choice or short-answer round in favor
// of the answering player: every other player loses a life, floored at zero.
func (s *GameService) resolveAttackLocked(ctx context.Context, game *domain.GameData, answererID int64) error {
	s.timers.CancelAll(game.RoomID)

	attacked := int64(-1)
	for i := range game.Members {
		m := &game.Members[i]
		if m.MemberID == answererID {
			continue
		}
		if attacked == -1 {
			attacked = m.MemberID
		}
		if m.Life > 0 {
			m.Life--
		}
	}
	return s.finishRoundLocked(ctx, game, attacked)
}

// resolveEssayLocked ends the essay round once two submissions are in: the
// higher score attacks the lower; on a tie the earlier submitter wins.
func (s *GameService) resolveEssayLocked(ctx context.Context, game *domain.GameData) error {
	s.timers.CancelAll(game.RoomID)

	first, second := game.EssaySubmissions[0], game.EssaySubmissions[1]
	loser := second
	switch {
	case first.Score < second.Score:
		loser = first
	case first.Score == second.Score && first.SubmittedAt.After(second.SubmittedAt):
		loser = first
	}

	attacked := int64(-1)
	for i := range game.Members {
		m := &game.Members[i]
		if m.MemberID != loser.MemberID {
			continue
		}
		attacked = m.MemberID
		if m.Life > 0 {
			m.Life--
		}
		break
	}
	return s.finishRoundLocked(ctx, game, attacked)
}

// finishRoundLocked persists the resolved round, announces the attack, and
// either settles the game or serves the next quiz.
func (s *GameService) finishRoundLocked(ctx context.Context, game *domain.GameData, attacked int64) error {
	game.CurrentSlot = 0
	if err := s.store.Put(ctx, *game); err != nil {
		return err
	}

	s.publish(ctx, game.RoomID, domain.EventMessage{
		Event:  domain.EventLifeAttack,
		RoomID: game.RoomID,
		Data: domain.AttackPayload{
			AttackedMemberID: attacked,
			Members:          game.Members,
		},
	})

	if s.end(game.Members) {
		return s.settleLocked(ctx, game)
	}
	err := s.nextQuizLocked(ctx, game)
	if errors.Is(err, domain.ErrNoRemainingQuiz) {
		return s.settleLocked(ctx, game)
	}
	return err
}

// resolveTimeout is the timer expiry callback. If the round the timer was
// armed for is still in play, it ends with no life change and the game moves
// on; otherwise an answer already won the race and this is a no-op.
func (s *GameService) resolveTimeout(roomID int64, slot int) {
	ctx := context.Background()
	lk := s.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	game, err := s.store.Get(ctx, roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrGameNotFound) {
			log.Printf("room %d: load on timeout failed: %v", roomID, err)
		}
		return
	}
	if game.CurrentSlot != slot {
		return
	}

	quiz, _ := game.QuizAt(slot)
	game.CurrentSlot = 0
	if err := s.store.Put(ctx, game); err != nil {
		log.Printf("room %d: persist timeout failed: %v", roomID, err)
		return
	}

	s.publish(ctx, roomID, domain.EventMessage{
		Event:  domain.EventAnswerResult,
		RoomID: roomID,
		Data:   domain.ResultPayload{QuizID: quiz.QuizID, Result: "timeout"},
	})

	if err := s.advanceLocked(ctx, &game); err != nil {
		log.Printf("room %d: advance after timeout failed: %v", roomID, err)
	}
}

func (s *GameService) advanceLocked(ctx context.Context, game *domain.GameData) error {
	if s.end(game.Members) {
		return s.settleLocked(ctx, game)
	}
	err := s.nextQuizLocked(ctx, game)
	if errors.Is(err, domain.ErrNoRemainingQuiz) {
		return s.settleLocked(ctx, game)
	}
	return err
}

// EndGame settles the room immediately. Exposed for an external game-end
// trigger; the engine also settles on its own once the end condition holds.
func (s *GameService) EndGame(ctx context.Context, roomID int64) error {
	lk := s.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	game, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	return s.settleLocked(ctx, &game)
}

// settleLocked compares the two primary players, credits rewards, deletes
// the game record, closes the room, and publishes the reward event. Ledger
// credits are best-effort; a missing room registry record is fatal.
func (s *GameService) settleLocked(ctx context.Context, game *domain.GameData) error {
	s.timers.CancelAll(game.RoomID)

	winner, loser := int64(-1), int64(-1)
	if len(game.Members) >= 2 {
		m1, m2 := game.Members[0], game.Members[1]
		switch {
		case m1.Life > m2.Life:
			winner, loser = m1.MemberID, m2.MemberID
		case m2.Life > m1.Life:
			winner, loser = m2.MemberID, m1.MemberID
		}
	}

	if winner != -1 {
		s.credit(ctx, winner, rewardWinner)
		s.credit(ctx, loser, rewardLoser)
	} else {
		for _, m := range game.Members {
			s.credit(ctx, m.MemberID, rewardDraw)
		}
	}

	if err := s.store.Delete(ctx, game.RoomID); err != nil {
		return err
	}
	if err := s.rooms.SetStatus(ctx, game.RoomID, domain.RoomClosed); err != nil {
		return err
	}

	s.publish(ctx, game.RoomID, domain.EventMessage{
		Event:  domain.EventGameReward,
		RoomID: game.RoomID,
		Data:   domain.RewardPayload{Winner: winner, Loser: loser},
	})
	return nil
}

func (s *GameService) credit(ctx context.Context, memberID int64, amount int) {
	if err := s.ledger.CreditPoints(ctx, memberID, amount); err != nil {
		log.Printf("credit %d points to member %d failed: %v", amount, memberID, err)
	}
}

func (s *GameService) publish(ctx context.Context, roomID int64, msg domain.EventMessage) {
	if err := s.publisher.Publish(ctx, domain.GameChannel(roomID), msg); err != nil {
		log.Printf("room %d: publish %s failed: %v", roomID, msg.Event, err)
	}
}

func (s *GameService) appendLog(ctx context.Context, entry domain.AnswerLogEntry) {
	if err := s.answerLog.Append(ctx, entry); err != nil {
		log.Printf("answer log append failed: %v", err)
	}
}

// evaluateAnswer decides correctness for the boolean quiz kinds. A
// non-numeric multiple-choice submission is an incorrect answer, not an
// error.
func evaluateAnswer(quiz domain.QuizItem, answer string) bool {
	switch quiz.Kind {
	case domain.KindMultipleChoice:
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			return false
		}
		for _, opt := range quiz.Options {
			if opt.Number == n && opt.Correct {
				return true
			}
		}
		return false
	case domain.KindShortAnswer:
		return strings.EqualFold(strings.TrimSpace(answer), quiz.Answer)
	}
	return false
}

// resultText builds the human-readable verdict. A wrong short-answer guess
// echoes the guess itself, which is meaningful information to the room.
func resultText(kind domain.QuizKind, correct bool, answer string) string {
	if correct {
		return "correct"
	}
	if kind == domain.KindShortAnswer {
		return answer
	}
	return "incorrect"
}

func questionEvent(kind domain.QuizKind) domain.EventType {
	switch kind {
	case domain.KindShortAnswer:
		return domain.EventNextQuestionShortAnswer
	case domain.KindEssay:
		return domain.EventNextQuestionEssay
	default:
		return domain.EventNextQuestionMultipleChoice
	}
}

// questionPayload strips correctness flags before a question leaves the
// engine.
func questionPayload(quiz domain.QuizItem) domain.QuestionPayload {
	payload := domain.QuestionPayload{
		QuizID:   quiz.QuizID,
		Question: quiz.Question,
	}
	for _, opt := range quiz.Options {
		payload.Options = append(payload.Options, domain.PublicOption{
			Number:  opt.Number,
			Content: opt.Content,
		})
	}
	return payload
}
