package idgen

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/pkg/errors"
)

const (
	trackingLength   = 10
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	trackingAttempts   = 10
	accessCodeAttempts = 5
)

// ExistsStore — проверка занятости идентификатора в хранилище заказов.
// Между проверкой и вставкой остаётся узкое окно гонки; его страхует
// уникальный индекс по номеру на стороне БД.
type ExistsStore interface {
	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
	AccessCodeExists(ctx context.Context, accessCode string) (bool, error)
}

type Generator struct {
	store ExistsStore
}

func New(store ExistsStore) *Generator {
	return &Generator{store: store}
}

// TrackingNumber выдаёт 10-значный номер из A-Z0-9 без "подбираемых"
// последовательностей вроде ABC или 789.
func (g *Generator) TrackingNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < trackingAttempts; attempt++ {
		candidate, err := randomCandidate(trackingLength)
		if err != nil {
			return "", err
		}
		if hasSequentialRun(candidate, 3) {
			continue
		}
		exists, err := g.store.TrackingNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.Wrap(models.ErrGenerationExhausted, "tracking number")
}

// AccessCode выдаёт уникальный 6-значный код.
func (g *Generator) AccessCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < accessCodeAttempts; attempt++ {
		candidate, err := randomAccessCode()
		if err != nil {
			return "", err
		}
		exists, err := g.store.AccessCodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.Wrap(models.ErrGenerationExhausted, "access code")
}

func randomCandidate(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "crypto rand")
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return string(out), nil
}

func randomAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", errors.Wrap(err, "crypto rand")
	}
	code := n.Int64() + 100000
	return big.NewInt(code).String(), nil
}

// hasSequentialRun находит окно из runLength символов одного класса
// (только цифры или только буквы), идущих строго по возрастанию или убыванию.
func hasSequentialRun(value string, runLength int) bool {
	if len(value) < runLength {
		return false
	}
	for i := 0; i+runLength <= len(value); i++ {
		slice := value[i : i+runLength]
		if !allDigits(slice) && !allLetters(slice) {
			continue
		}
		asc, desc := true, true
		for j := 1; j < len(slice); j++ {
			if slice[j] != slice[j-1]+1 {
				asc = false
			}
			if slice[j] != slice[j-1]-1 {
				desc = false
			}
		}
		if asc || desc {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
