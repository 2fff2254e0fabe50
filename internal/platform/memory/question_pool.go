package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/phrazzld/scry-quiz/internal/domain"
	"github.com/phrazzld/scry-quiz/internal/store"
)

// Fixture is the on-disk format of a question pool.
type Fixture struct {
	Levels []FixtureLevel `json:"levels"`
}

// FixtureLevel is one level of a Fixture.
type FixtureLevel struct {
	Level     int               `json:"level"`
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}

// QuestionPool is a read-only question pool held in memory.
type QuestionPool struct {
	mu          sync.RWMutex
	levels      map[int][]domain.Question
	unavailable error
}

// Ensure QuestionPool implements store.QuestionPool interface
var _ store.QuestionPool = (*QuestionPool)(nil)

// NewQuestionPool creates an empty pool.
func NewQuestionPool() *QuestionPool {
	return &QuestionPool{levels: make(map[int][]domain.Question)}
}

// LoadFixtureFile builds a pool from a JSON fixture file.
func LoadFixtureFile(path string) (*QuestionPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question fixture: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse question fixture %s: %w", path, err)
	}

	pool := NewQuestionPool()
	for _, lvl := range fixture.Levels {
		if err := pool.SetLevel(lvl.Level, lvl.Questions); err != nil {
			return nil, fmt.Errorf("invalid level %d in %s: %w", lvl.Level, path, err)
		}
	}
	return pool, nil
}

// SetLevel replaces the content of a level. Questions are validated, must have
// unique identifiers, and are kept ordered by position then identifier.
func (p *QuestionPool) SetLevel(level int, questions []domain.Question) error {
	if level <= 0 {
		return domain.ErrInvalidLevel
	}

	seen := make(map[string]struct{}, len(questions))
	content := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		q.Level = level
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %q: %w", q.ID, err)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %q: %w", q.ID, store.ErrDuplicate)
		}
		seen[q.ID] = struct{}{}
		q.Choices = append([]string(nil), q.Choices...)
		content = append(content, q)
	}

	sort.SliceStable(content, func(i, j int) bool {
		if content[i].Position == content[j].Position {
			return content[i].ID < content[j].ID
		}
		return content[i].Position < content[j].Position
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[level] = content
	return nil
}

// SetUnavailable makes every read fail with store.ErrPoolUnavailable wrapping
// err. A nil err restores the pool.
func (p *QuestionPool) SetUnavailable(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = err
}

// Levels returns the known levels in ascending order.
func (p *QuestionPool) Levels() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	levels := make([]int, 0, len(p.levels))
	for level := range p.levels {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// LevelExists implements store.QuestionPool.LevelExists
func (p *QuestionPool) LevelExists(ctx context.Context, level int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.unavailable != nil {
		return false, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, p.unavailable)
	}
	_, ok := p.levels[level]
	return ok, nil
}

// LoadQuestionsByLevel implements store.QuestionPool.LoadQuestionsByLevel
func (p *QuestionPool) LoadQuestionsByLevel(ctx context.Context, level int) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.unavailable != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrPoolUnavailable, p.unavailable)
	}

	content, ok := p.levels[level]
	if !ok {
		return nil, store.ErrUnknownLevel
	}

	questions := make([]domain.Question, len(content))
	for i, q := range content {
		q.Choices = append([]string(nil), q.Choices...)
		questions[i] = q
	}
	return questions, nil
}
