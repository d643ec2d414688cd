// Package confirm issues the typed challenge phrases that guard bulk delete.
package confirm

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnknownChallenge = errors.New("unknown challenge")
	ErrExpired          = errors.New("challenge expired")
	ErrMismatch         = errors.New("phrase does not match")
)

const DefaultTTL = 5 * time.Minute

// Words are short, easy-to-type words phrases are built from.
var Words = []string{
	"red", "blue", "pink", "gold", "jade",
	"dog", "cat", "fox", "wolf", "bear", "duck", "fish",
	"tree", "leaf", "rock", "moon", "star", "rain", "wind",
	"book", "lamp", "key", "door", "cup", "ring", "box",
	"cake", "milk", "rice", "pie", "jam",
	"hope", "joy", "calm", "soft", "wave",
	"jump", "swim", "run", "sing", "glow",
	"home", "shop", "park", "pond", "cave",
	"code", "link", "post", "chat", "app",
}

const phraseWords = 3

// Challenge is handed to the caller once; the phrase is not kept.
// swagger:model
type Challenge struct {
	ID     string `json:"challenge_id" example:"0b8f3c1e-8f0a-4c55-9d2b-6d3f0b8f3c1e"`
	Phrase string `json:"phrase"       example:"jade-fox-lamp"`
}

type pending struct {
	hash    []byte
	expires time.Time
}

// Challenges tracks outstanding challenges. Safe for concurrent use.
type Challenges struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]pending
	now     func() time.Time
}

func New(ttl time.Duration) *Challenges {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Challenges{ttl: ttl, pending: map[string]pending{}, now: time.Now}
}

// Issue creates a challenge and keeps only a hash of its phrase.
func (c *Challenges) Issue() (Challenge, error) {
	words := make([]string, phraseWords)
	for i := range words {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(Words))))
		if err != nil {
			return Challenge{}, errors.Wrap(err, "pick word")
		}
		words[i] = Words[n.Int64()]
	}
	phrase := strings.Join(words, "-")

	hash, err := bcrypt.GenerateFromPassword([]byte(phrase), bcrypt.DefaultCost)
	if err != nil {
		return Challenge{}, errors.Wrap(err, "hash phrase")
	}

	ch := Challenge{ID: uuid.NewString(), Phrase: phrase}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.pending[ch.ID] = pending{hash: hash, expires: c.now().Add(c.ttl)}
	return ch, nil
}

// Verify checks a typed phrase, ignoring whitespace. A challenge can be
// verified successfully only once; a wrong phrase leaves it open.
func (c *Challenges) Verify(id, typed string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[id]
	if !ok {
		return ErrUnknownChallenge
	}
	if c.now().After(p.expires) {
		delete(c.pending, id)
		return ErrExpired
	}
	if bcrypt.CompareHashAndPassword(p.hash, []byte(stripSpace(typed))) != nil {
		return ErrMismatch
	}
	delete(c.pending, id)
	return nil
}

func (c *Challenges) sweepLocked() {
	now := c.now()
	for id, p := range c.pending {
		if now.After(p.expires) {
			delete(c.pending, id)
		}
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
