package accessgate

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/CarTrace/internal/models"
	"github.com/BearBump/CarTrace/internal/ratelimit"
	"github.com/BearBump/CarTrace/internal/validate"
)

const (
	lockoutLimit  = 10
	lockoutWindow = 30 * time.Minute
)

// Gate проверяет код доступа клиента к заказу и ведёт счётчик неудач
// по паре (трек-номер, ip). При отключённой политике пропускает всех —
// это осознанный режим для демо/стейджинга.
type Gate struct {
	limiter      ratelimit.Limiter
	codeRequired bool
}

func New(limiter ratelimit.Limiter, codeRequired bool) *Gate {
	return &Gate{limiter: limiter, codeRequired: codeRequired}
}

// Require возвращает nil, models.ErrInvalidCode или models.ErrLocked.
// Сначала peek: уже залоченный ключ не тратит попытку. Успешный ввод
// счётчик НЕ сбрасывает — локаут снимается только истечением окна.
func (g *Gate) Require(ctx context.Context, trackingNumber, providedCode string, orderAccessCode *string, ip string) error {
	if !g.codeRequired {
		return nil
	}

	lockKey := fmt.Sprintf("access-code:%s:%s", trackingNumber, ip)

	lockStatus, err := g.limiter.Peek(ctx, lockKey, lockoutLimit, lockoutWindow)
	if err != nil {
		return err
	}
	if !lockStatus.OK {
		return models.ErrLocked
	}

	code := ""
	if orderAccessCode != nil {
		code = *orderAccessCode
	}
	if providedCode == "" || !validate.AccessCode(providedCode) || providedCode != code {
		attempt, err := g.limiter.Allow(ctx, lockKey, lockoutLimit, lockoutWindow)
		if err != nil {
			return err
		}
		// Попытка, исчерпавшая окно, уже считается локаутом.
		if !attempt.OK || attempt.Remaining == 0 {
			return models.ErrLocked
		}
		return models.ErrInvalidCode
	}

	return nil
}
