package enllac

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Locker serialitza les operacions sobre un mateix arbre. Lock bloqueja tots
// els ids (en ordre ascendent, per evitar interbloquejos) i retorna la funció
// que els allibera.
type Locker interface {
	Lock(ctx context.Context, ids ...int) (func(), error)
}

// LocalLocker bloqueja dins del procés amb un semàfor d'un sol pes per arbre.
// L'entrada d'un arbre s'esborra quan ningú no el té ni l'espera.
type LocalLocker struct {
	mu   sync.Mutex
	sems map[int]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sems: map[int]*lockEntry{}}
}

func (l *LocalLocker) get(id int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.sems[id]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.sems[id] = e
	}
	e.refs++
	return e.sem
}

func (l *LocalLocker) put(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.sems[id]; ok {
		if e.refs--; e.refs <= 0 {
			delete(l.sems, id)
		}
	}
}

func (l *LocalLocker) Lock(ctx context.Context, ids ...int) (func(), error) {
	keys := lockOrder(ids)
	acquired := make([]int, 0, len(keys))
	sems := make([]*semaphore.Weighted, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			sems[i].Release(1)
			l.put(acquired[i])
		}
	}
	for _, id := range keys {
		s := l.get(id)
		if err := s.Acquire(ctx, 1); err != nil {
			l.put(id)
			release()
			return nil, err
		}
		acquired = append(acquired, id)
		sems = append(sems, s)
	}
	return release, nil
}

// entries retorna quants arbres tenen semàfor viu.
func (l *LocalLocker) entries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sems)
}

func lockOrder(ids []int) []int {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	return slices.Compact(keys)
}
