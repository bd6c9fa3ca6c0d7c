package shortlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/db"
	"foodgram/internal/metrics"
	"foodgram/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	byCode   map[string]*models.ShortLink
	byRecipe map[int64]*models.ShortLink
	lookups  int

	// failCreates makes the next n CreateShortLink calls report a code
	// collision.
	failCreates int
	// raceRecipe makes the first CreateShortLink call link the recipe with
	// another code first, as a concurrent request would.
	raceRecipe bool
}

func newMemStore() *memStore {
	return &memStore{byCode: map[string]*models.ShortLink{}, byRecipe: map[int64]*models.ShortLink{}}
}

func (m *memStore) GetShortLinkByRecipe(_ context.Context, recipeID int64) (*models.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.byRecipe[recipeID]; ok {
		return l, nil
	}
	return nil, db.ErrShortLinkNotFound
}

func (m *memStore) GetShortLinkByCode(_ context.Context, code string) (*models.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if l, ok := m.byCode[code]; ok {
		return l, nil
	}
	return nil, db.ErrShortLinkNotFound
}

func (m *memStore) CreateShortLink(_ context.Context, recipeID int64, code string) (*models.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceRecipe {
		m.raceRecipe = false
		m.put(recipeID, "winner")
		return nil, db.ErrDuplicateShortLink
	}
	if m.failCreates > 0 {
		m.failCreates--
		return nil, db.ErrDuplicateShortLink
	}
	if _, ok := m.byCode[code]; ok {
		return nil, db.ErrDuplicateShortLink
	}
	if _, ok := m.byRecipe[recipeID]; ok {
		return nil, db.ErrDuplicateShortLink
	}
	return m.put(recipeID, code), nil
}

func (m *memStore) put(recipeID int64, code string) *models.ShortLink {
	l := &models.ShortLink{RecipeID: recipeID, Code: code, CreatedAt: time.Now()}
	m.byCode[code] = l
	m.byRecipe[recipeID] = l
	return l
}

func newTestService(t *testing.T, store Store, length int) *Service {
	t.Helper()
	s, err := New(store, "https://foodgram.example/", length, 16)
	require.NoError(t, err)
	s.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return s
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for _, length := range []int{3, 6, 10} {
		s := newTestService(t, newMemStore(), length)
		for i := 0; i < 200; i++ {
			code, err := s.Generate(context.Background())
			require.NoError(t, err)
			assert.Len(t, code, length)
			assert.True(t, isAlnum(code), "code %q is not alphanumeric", code)
		}
	}
}

func TestCreate_CodesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemStore(), 3)

	seen := make(map[string]bool)
	for id := int64(1); id <= 2000; id++ {
		link, err := s.Create(ctx, id)
		require.NoError(t, err)
		assert.False(t, seen[link.Code], "duplicate code %q", link.Code)
		seen[link.Code] = true
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(newMemStore(), "", 0, 0)
	require.NoError(t, err)
	code, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, defaultLength)

	_, err = New(newMemStore(), "", maxCodeLength+1, 0)
	assert.Error(t, err)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newMemStore(), 6)

	first, err := s.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	second, err := s.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
}

func TestCreate_RetriesCollisions(t *testing.T) {
	store := newMemStore()
	store.failCreates = 2
	s := newTestService(t, store, 6)

	link, err := s.Create(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), link.RecipeID)
}

func TestCreate_GivesUpAfterMaxTries(t *testing.T) {
	store := newMemStore()
	store.failCreates = 100
	s := newTestService(t, store, 6)

	_, err := s.Create(context.Background(), 7)
	assert.ErrorIs(t, err, db.ErrDuplicateShortLink)
}

func TestCreate_ReturnsWinnerOfRecipeRace(t *testing.T) {
	store := newMemStore()
	store.raceRecipe = true
	s := newTestService(t, store, 6)

	link, err := s.Create(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "winner", link.Code)
}

func TestCreate_StoreErrorIsNotRetried(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestService(t, failingStore{err: boom}, 6)

	_, err := s.Create(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

type failingStore struct{ err error }

func (f failingStore) GetShortLinkByRecipe(context.Context, int64) (*models.ShortLink, error) {
	return nil, db.ErrShortLinkNotFound
}
func (f failingStore) GetShortLinkByCode(context.Context, string) (*models.ShortLink, error) {
	return nil, db.ErrShortLinkNotFound
}
func (f failingStore) CreateShortLink(context.Context, int64, string) (*models.ShortLink, error) {
	return nil, f.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := newTestService(t, store, 6)

	link, err := s.Create(ctx, 5)
	require.NoError(t, err)

	id, err := s.Resolve(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	lookups := store.lookups
	id, err = s.Resolve(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, lookups, store.lookups, "second resolve should be served from cache")

	for _, code := range []string{"zzzzzz", "", "bad-code!", "aaaaaaaaaaaaaaaaaaaaa"} {
		_, err := s.Resolve(ctx, code)
		assert.ErrorIs(t, err, ErrNotFound, "code %q", code)
	}
}

type lookupRows struct {
	mu   sync.Mutex
	rows map[[2]string]int64
}

func (l *lookupRows) GetAllShortLinkLookups(context.Context) ([]models.ShortLinkLookup, error) {
	return nil, nil
}

func (l *lookupRows) IncrementShortLinkLookup(_ context.Context, code, outcome string, n int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[[2]string{code, outcome}] += n
	return nil
}

func (l *lookupRows) TableCounts(context.Context) ([]models.TableCount, error) {
	return nil, nil
}

func TestResolve_UnknownCodesShareOneLookupRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rows := &lookupRows{rows: map[[2]string]int64{}}
	metrics.Init(ctx, rows)

	store := newMemStore()
	s := newTestService(t, store, 6)
	link, err := s.Create(ctx, 9)
	require.NoError(t, err)

	for i := range 1000 {
		_, err := s.Resolve(ctx, fmt.Sprintf("zz%04d", i))
		require.ErrorIs(t, err, ErrNotFound)
	}
	for range 2 {
		_, err := s.Resolve(ctx, link.Code)
		require.NoError(t, err)
	}
	metrics.Flush()

	rows.mu.Lock()
	defer rows.mu.Unlock()
	assert.Equal(t, map[[2]string]int64{
		{models.UnknownCode, models.OutcomeNotFound}: 1000,
		{link.Code, models.OutcomeResolved}:          2,
	}, rows.rows)
}

func TestURLs(t *testing.T) {
	s := newTestService(t, newMemStore(), 6)
	assert.Equal(t, "https://foodgram.example/s/Ab3", s.URL("Ab3"))
	assert.Equal(t, "https://foodgram.example/recipes/12", s.RecipeURL(12))
}
