// Package shortlink issues and resolves the short codes that redirect to
// recipe pages.
package shortlink

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru"

	"foodgram/internal/db"
	"foodgram/internal/metrics"
	"foodgram/internal/models"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// maxCodeLength matches the short_links.code column.
	maxCodeLength = 16

	defaultLength      = 6
	generateAttempts   = 10
	defaultCreateTries = 5
)

var (
	ErrNotFound = errors.New("short link not found")
	// ErrExhausted is returned when no free code could be drawn.
	ErrExhausted = errors.New("could not generate a unique short code")
)

// Store is the persistence used by the service. *db.DB implements it.
type Store interface {
	GetShortLinkByRecipe(ctx context.Context, recipeID int64) (*models.ShortLink, error)
	GetShortLinkByCode(ctx context.Context, code string) (*models.ShortLink, error)
	CreateShortLink(ctx context.Context, recipeID int64, code string) (*models.ShortLink, error)
}

// Service generates and resolves short links.
type Service struct {
	store   Store
	baseURL string
	length  int
	cache   *lru.Cache

	createTries uint
	newBackOff  func() backoff.BackOff
}

// New creates a Service. length <= 0 selects the default code length and
// cacheSize <= 0 disables the resolve cache.
func New(store Store, baseURL string, length, cacheSize int) (*Service, error) {
	if length <= 0 {
		length = defaultLength
	}
	if length > maxCodeLength {
		return nil, fmt.Errorf("short code length %d exceeds %d", length, maxCodeLength)
	}

	s := &Service{
		store:       store,
		baseURL:     strings.TrimRight(baseURL, "/"),
		length:      length,
		createTries: defaultCreateTries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 200 * time.Millisecond
			return b
		},
	}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create short link cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// WithStore returns a copy of the service bound to store, sharing the cache.
// Used to issue links inside a recipe transaction.
func (s *Service) WithStore(store Store) *Service {
	c := *s
	c.store = store
	return &c
}

// Generate draws random codes until one is not stored yet.
func (s *Service) Generate(ctx context.Context) (string, error) {
	for i := 0; i < generateAttempts; i++ {
		code, err := randomCode(s.length)
		if err != nil {
			return "", err
		}
		_, err = s.store.GetShortLinkByCode(ctx, code)
		if errors.Is(err, db.ErrShortLinkNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrExhausted
}

// GetOrCreate returns the recipe's link, creating it on first use.
func (s *Service) GetOrCreate(ctx context.Context, recipeID int64) (*models.ShortLink, error) {
	link, err := s.store.GetShortLinkByRecipe(ctx, recipeID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, db.ErrShortLinkNotFound) {
		return nil, err
	}
	return s.Create(ctx, recipeID)
}

// Create inserts a fresh code for the recipe. A code collision is retried
// with backoff; if another request linked the recipe first, that link is
// returned.
func (s *Service) Create(ctx context.Context, recipeID int64) (*models.ShortLink, error) {
	op := func() (*models.ShortLink, error) {
		code, err := s.Generate(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		link, err := s.store.CreateShortLink(ctx, recipeID, code)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, db.ErrDuplicateShortLink) {
			return nil, backoff.Permanent(err)
		}

		existing, lookupErr := s.store.GetShortLinkByRecipe(ctx, recipeID)
		if lookupErr == nil {
			return existing, nil
		}
		if !errors.Is(lookupErr, db.ErrShortLinkNotFound) {
			return nil, backoff.Permanent(lookupErr)
		}
		return nil, err
	}

	link, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.createTries),
	)
	if err != nil {
		return nil, fmt.Errorf("create short link for recipe %d: %w", recipeID, err)
	}
	return link, nil
}

// Resolve returns the recipe id behind code.
func (s *Service) Resolve(ctx context.Context, code string) (int64, error) {
	if !validCode(code) {
		metrics.RecordShortLinkLookup(code, models.OutcomeNotFound)
		return 0, ErrNotFound
	}

	if s.cache != nil {
		if v, ok := s.cache.Get(code); ok {
			metrics.RecordShortLinkLookup(code, models.OutcomeResolved)
			return v.(int64), nil
		}
	}

	link, err := s.store.GetShortLinkByCode(ctx, code)
	if errors.Is(err, db.ErrShortLinkNotFound) {
		metrics.RecordShortLinkLookup(code, models.OutcomeNotFound)
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.Add(code, link.RecipeID)
	}
	metrics.RecordShortLinkLookup(code, models.OutcomeResolved)
	return link.RecipeID, nil
}

// Forget drops a code from the resolve cache, e.g. after its recipe was
// deleted.
func (s *Service) Forget(code string) {
	if s.cache != nil {
		s.cache.Remove(code)
	}
}

// URL is the public short URL for code.
func (s *Service) URL(code string) string {
	return s.baseURL + "/s/" + code
}

// RecipeURL is the canonical page a short link redirects to.
func (s *Service) RecipeURL(recipeID int64) string {
	return fmt.Sprintf("%s/recipes/%d", s.baseURL, recipeID)
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

func validCode(code string) bool {
	if code == "" || len(code) > maxCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
