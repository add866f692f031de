package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"uv-mask-maker/internal/session"
)

var errSessionNotFound = errors.New("session not found")

type entry struct {
	sess     *session.Session
	created  time.Time
	lastUsed time.Time
}

// store keeps live sessions by id. When full, the least recently used
// session is evicted.
type store struct {
	mu       sync.Mutex
	max      int
	sessions map[uuid.UUID]*entry
	now      func() time.Time
}

func newStore(max int) *store {
	if max <= 0 {
		max = 1
	}
	return &store{max: max, sessions: make(map[uuid.UUID]*entry), now: time.Now}
}

// add registers sess and returns its id plus the id evicted to make room.
func (st *store) add(sess *session.Session) (id uuid.UUID, evicted uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		var oldest time.Time
		for k, e := range st.sessions {
			if evicted == uuid.Nil || e.lastUsed.Before(oldest) {
				evicted, oldest = k, e.lastUsed
			}
		}
		delete(st.sessions, evicted)
	}

	id = uuid.Must(uuid.NewV7())
	now := st.now()
	st.sessions[id] = &entry{sess: sess, created: now, lastUsed: now}
	return id, evicted
}

func (st *store) get(id uuid.UUID) (*session.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	e.lastUsed = st.now()
	return e.sess, nil
}

func (st *store) remove(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

func (st *store) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
