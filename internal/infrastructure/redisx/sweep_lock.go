package redisx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/commerce-core/internal/application/ports"
)

var _ ports.Locker = (*Locker)(nil)

// releaseScript borra el lock solo si el token coincide: evita que una
// instancia lenta libere el lock que ya expiró y otra volvió a tomar.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker mutex distribuido sobre Redis (SET NX con TTL). Lo usa el sweeper
// para que una sola instancia ejecute la pasada a la vez.
type Locker struct {
	rdb *redis.Client
}

// NewLocker construye el locker sobre el cliente dado.
func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.New().String()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
