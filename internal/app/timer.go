package app

import (
	"sync"
	"time"
)

// TimerScheduler owns the cancellable countdown of the active round per room.
type TimerScheduler interface {
	// Arm schedules expire after d, replacing any countdown already armed
	// for the room.
	Arm(roomID int64, slot int, d time.Duration, expire func())
	// CancelAll stops every pending countdown for the room.
	CancelAll(roomID int64)
}

// QuizTimers is the time.AfterFunc-backed scheduler used in production.
type QuizTimers struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func NewQuizTimers() *QuizTimers {
	return &QuizTimers{timers: make(map[int64]*time.Timer)}
}

func (q *QuizTimers) Arm(roomID int64, slot int, d time.Duration, expire func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.timers[roomID]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		q.mu.Lock()
		if q.timers[roomID] == timer {
			delete(q.timers, roomID)
		}
		q.mu.Unlock()
		expire()
	})
	q.timers[roomID] = timer
}

func (q *QuizTimers) CancelAll(roomID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.timers[roomID]; ok {
		t.Stop()
		delete(q.timers, roomID)
	}
}
