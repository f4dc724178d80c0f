package order

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeLength is the length of every public order code.
	CodeLength = 6

	maxCodeAttempts = 10
)

// CodeChecker reports whether an order code is already in use.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeSource produces public order codes.
type CodeSource interface {
	Generate(ctx context.Context) (string, error)
}

// CodeGenerator produces 6-character order codes from [A-Z0-9], checking each
// candidate against the store and retrying on collision. After 10 colliding
// attempts it falls back to an md5 fingerprint of the current time plus a
// random salt, truncated to 6 uppercase hex characters, without a further
// uniqueness check. The fallback keyspace is a subset of [A-Z0-9], so the
// code shape is identical on both paths.
type CodeGenerator struct {
	store CodeChecker

	// intn and now are swappable for tests.
	intn func(n int) int
	now  func() time.Time
}

var _ CodeSource = (*CodeGenerator)(nil)

// NewCodeGenerator creates a CodeGenerator backed by the given store.
func NewCodeGenerator(store CodeChecker) *CodeGenerator {
	return &CodeGenerator{
		store: store,
		intn:  rand.IntN,
		now:   time.Now,
	}
}

// Generate returns a code not currently held by any order. It performs at
// most 10 existence checks; exhaustion is resolved via the fallback path and
// never reported as an error. A store failure during an existence check is
// propagated.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := g.randomCode()

		exists, err := g.store.CodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "check code")
		}
		if !exists {
			return code, nil
		}
	}
	return g.fallbackCode(), nil
}

func (g *CodeGenerator) randomCode() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for range CodeLength {
		b.WriteByte(codeAlphabet[g.intn(len(codeAlphabet))])
	}
	return b.String()
}

func (g *CodeGenerator) fallbackCode() string {
	seed := strconv.FormatInt(g.now().Unix(), 10) + strconv.Itoa(g.intn(1<<30))
	sum := md5.Sum([]byte(seed))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:CodeLength]
}
