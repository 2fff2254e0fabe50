package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
	"github.com/phrazzld/scry-quiz/internal/store"
)

type levelKey struct {
	learnerID uuid.UUID
	level     int
}

type ledgerKey struct {
	learnerID  uuid.UUID
	questionID string
}

// state is one generation of stored records. Stored values are never mutated
// in place; readers always receive clones.
type state struct {
	progress   map[levelKey]*domain.LevelProgress
	ledger     map[ledgerKey]*domain.ReviewEntry
	statistics map[levelKey]*domain.LevelStatistics
	events     map[uuid.UUID]domain.AnswerEvent
}

func newState() *state {
	return &state{
		progress:   make(map[levelKey]*domain.LevelProgress),
		ledger:     make(map[ledgerKey]*domain.ReviewEntry),
		statistics: make(map[levelKey]*domain.LevelStatistics),
		events:     make(map[uuid.UUID]domain.AnswerEvent),
	}
}

func (s *state) empty() bool {
	return len(s.progress) == 0 && len(s.ledger) == 0 && len(s.statistics) == 0 && len(s.events) == 0
}

// Store is an in-memory implementation of store.UnitOfWork and the
// repositories it hands out.
type Store struct {
	mu        sync.RWMutex
	committed *state
	locks     *keyedMutex
	logger    *slog.Logger
}

// Ensure Store implements store.UnitOfWork interface
var _ store.UnitOfWork = (*Store)(nil)

// NewStore creates an empty in-memory store.
// If logger is nil, a default logger will be used.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		committed: newState(),
		locks:     newKeyedMutex(),
		logger:    logger.With(slog.String("component", "memory_store")),
	}
}

// Run implements store.UnitOfWork.Run
func (s *Store) Run(ctx context.Context, fn store.WorkFn) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	sess := &session{store: s, staged: newState(), held: make(map[string]func())}

	defer func() {
		sess.release()
		if p := recover(); p != nil {
			log.Error("discarded staged writes after panic", slog.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(ctx, sess.repositories()); err != nil {
		log.Debug("discarded staged writes due to error", slog.String("error", err.Error()))
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", store.ErrTransactionFailed, err)
	}

	if !sess.staged.empty() {
		s.commit(sess.staged)
	}
	return nil
}

// Repositories implements store.UnitOfWork.Repositories
// Writes made through them are applied immediately.
func (s *Store) Repositories() store.Repositories {
	return (&session{store: s}).repositories()
}

func (s *Store) commit(staged *state) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range staged.progress {
		s.committed.progress[k] = v
	}
	for k, v := range staged.ledger {
		s.committed.ledger[k] = v
	}
	for k, v := range staged.statistics {
		s.committed.statistics[k] = v
	}
	for k, v := range staged.events {
		s.committed.events[k] = v
	}
}

// session is the view a unit of work (staged != nil) or a plain caller
// (staged == nil) has of the store.
type session struct {
	store  *Store
	staged *state
	held   map[string]func()
}

func (s *session) repositories() store.Repositories {
	return store.Repositories{
		Progress:   &progressStore{sess: s},
		Ledger:     &ledgerStore{sess: s},
		Statistics: &statisticsStore{sess: s},
		Answers:    &answerEventStore{sess: s},
	}
}

// lock takes the key lock for the rest of the unit of work. Outside a unit
// of work it is a no-op.
func (s *session) lock(key string) {
	if s.staged == nil {
		return
	}
	if _, ok := s.held[key]; ok {
		return
	}
	s.held[key] = s.store.locks.Lock(key)
}

func (s *session) release() {
	for key, unlock := range s.held {
		unlock()
		delete(s.held, key)
	}
}

// write applies fn to the staged state, or directly to the committed state
// outside a unit of work.
func (s *session) write(fn func(st *state)) {
	if s.staged != nil {
		fn(s.staged)
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	fn(s.store.committed)
}

// read runs fn against the staged state first and the committed state second.
func (s *session) read(fn func(st *state) bool) {
	if s.staged != nil && fn(s.staged) {
		return
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	fn(s.store.committed)
}

func progressLockKey(k levelKey) string {
	return fmt.Sprintf("progress/%s/%d", k.learnerID, k.level)
}

func statisticsLockKey(k levelKey) string {
	return fmt.Sprintf("statistics/%s/%d", k.learnerID, k.level)
}

func ledgerLockKey(k ledgerKey) string {
	return fmt.Sprintf("ledger/%s/%s", k.learnerID, k.questionID)
}

func eventLockKey(id uuid.UUID) string {
	return "event/" + id.String()
}

// progressStore implements store.ProgressStore
type progressStore struct {
	sess *session
}

var _ store.ProgressStore = (*progressStore)(nil)

func (p *progressStore) Get(_ context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error) {
	var found *domain.LevelProgress
	p.sess.read(func(st *state) bool {
		found = st.progress[levelKey{learnerID, level}]
		return found != nil
	})
	if found == nil {
		return nil, store.ErrProgressNotFound
	}
	return found.Clone(), nil
}

func (p *progressStore) GetForUpdate(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelProgress, error) {
	p.sess.lock(progressLockKey(levelKey{learnerID, level}))
	return p.Get(ctx, learnerID, level)
}

func (p *progressStore) Create(ctx context.Context, progress *domain.LevelProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	key := levelKey{progress.LearnerID, progress.Level}
	p.sess.lock(progressLockKey(key))

	if _, err := p.Get(ctx, key.learnerID, key.level); err == nil {
		return store.ErrProgressExists
	}

	value := progress.Clone()
	p.sess.write(func(st *state) { st.progress[key] = value })
	return nil
}

func (p *progressStore) Update(ctx context.Context, progress *domain.LevelProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	key := levelKey{progress.LearnerID, progress.Level}
	if _, err := p.Get(ctx, key.learnerID, key.level); err != nil {
		return err
	}

	value := progress.Clone()
	p.sess.write(func(st *state) { st.progress[key] = value })
	return nil
}

// ledgerStore implements store.ReviewLedgerStore
type ledgerStore struct {
	sess *session
}

var _ store.ReviewLedgerStore = (*ledgerStore)(nil)

func (l *ledgerStore) Get(_ context.Context, learnerID uuid.UUID, questionID string) (*domain.ReviewEntry, error) {
	var found *domain.ReviewEntry
	l.sess.read(func(st *state) bool {
		found = st.ledger[ledgerKey{learnerID, questionID}]
		return found != nil
	})
	if found == nil {
		return nil, store.ErrReviewEntryNotFound
	}
	return found.Clone(), nil
}

func (l *ledgerStore) GetForUpdate(ctx context.Context, learnerID uuid.UUID, questionID string) (*domain.ReviewEntry, error) {
	l.sess.lock(ledgerLockKey(ledgerKey{learnerID, questionID}))
	return l.Get(ctx, learnerID, questionID)
}

func (l *ledgerStore) Upsert(_ context.Context, entry *domain.ReviewEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	key := ledgerKey{entry.LearnerID, entry.QuestionID}
	l.sess.lock(ledgerLockKey(key))

	value := entry.Clone()
	l.sess.write(func(st *state) { st.ledger[key] = value })
	return nil
}

func (l *ledgerStore) ListByLevel(_ context.Context, learnerID uuid.UUID, level int) ([]*domain.ReviewEntry, error) {
	entries := l.collect(learnerID, level, func(*domain.ReviewEntry) bool { return true })

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DifficultyScore == entries[j].DifficultyScore {
			return entries[i].QuestionID < entries[j].QuestionID
		}
		return entries[i].DifficultyScore > entries[j].DifficultyScore
	})
	return entries, nil
}

func (l *ledgerStore) ListDue(_ context.Context, learnerID uuid.UUID, level int, now time.Time) ([]*domain.ReviewEntry, error) {
	entries := l.collect(learnerID, level, func(e *domain.ReviewEntry) bool { return e.IsDue(now) })

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].NextReviewAt.Equal(entries[j].NextReviewAt) {
			return entries[i].QuestionID < entries[j].QuestionID
		}
		return entries[i].NextReviewAt.Before(entries[j].NextReviewAt)
	})
	return entries, nil
}

// collect merges committed and staged entries, staged versions winning.
func (l *ledgerStore) collect(learnerID uuid.UUID, level int, keep func(*domain.ReviewEntry) bool) []*domain.ReviewEntry {
	merged := make(map[ledgerKey]*domain.ReviewEntry)

	l.sess.store.mu.RLock()
	for k, e := range l.sess.store.committed.ledger {
		if k.learnerID == learnerID {
			merged[k] = e
		}
	}
	l.sess.store.mu.RUnlock()

	if l.sess.staged != nil {
		for k, e := range l.sess.staged.ledger {
			if k.learnerID == learnerID {
				merged[k] = e
			}
		}
	}

	entries := make([]*domain.ReviewEntry, 0, len(merged))
	for _, e := range merged {
		if (level == 0 || e.Level == level) && keep(e) {
			entries = append(entries, e.Clone())
		}
	}
	return entries
}

// statisticsStore implements store.StatisticsStore
type statisticsStore struct {
	sess *session
}

var _ store.StatisticsStore = (*statisticsStore)(nil)

func (s *statisticsStore) Get(_ context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error) {
	var found *domain.LevelStatistics
	s.sess.read(func(st *state) bool {
		found = st.statistics[levelKey{learnerID, level}]
		return found != nil
	})
	if found == nil {
		return nil, store.ErrStatisticsNotFound
	}
	return found.Clone(), nil
}

func (s *statisticsStore) GetForUpdate(ctx context.Context, learnerID uuid.UUID, level int) (*domain.LevelStatistics, error) {
	s.sess.lock(statisticsLockKey(levelKey{learnerID, level}))
	return s.Get(ctx, learnerID, level)
}

func (s *statisticsStore) Upsert(_ context.Context, stats *domain.LevelStatistics) error {
	if stats.TotalAnswered < 0 || stats.CorrectCount < 0 || stats.CorrectCount > stats.TotalAnswered {
		return fmt.Errorf("%w: inconsistent statistics counters", store.ErrInvalidEntity)
	}

	key := levelKey{stats.LearnerID, stats.Level}
	s.sess.lock(statisticsLockKey(key))

	value := stats.Clone()
	s.sess.write(func(st *state) { st.statistics[key] = value })
	return nil
}

// answerEventStore implements store.AnswerEventStore
type answerEventStore struct {
	sess *session
}

var _ store.AnswerEventStore = (*answerEventStore)(nil)

func (a *answerEventStore) Create(ctx context.Context, event *domain.AnswerEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	exists, err := a.Exists(ctx, event.ID)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrAnswerEventExists
	}

	value := *event
	a.sess.write(func(st *state) { st.events[event.ID] = value })
	return nil
}

func (a *answerEventStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	a.sess.lock(eventLockKey(id))

	var found bool
	a.sess.read(func(st *state) bool {
		_, found = st.events[id]
		return found
	})
	return found, nil
}
