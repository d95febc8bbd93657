package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPersister stores session state as an opaque key -> JSON blob with a
// maximum age, after which the entry is treated as absent.
type redisPersister struct {
	client *redis.Client
	key    string
	maxAge time.Duration
}

func NewRedisPersister(client *redis.Client, key string, maxAge time.Duration) Persister {
	return &redisPersister{client: client, key: key, maxAge: maxAge}
}

func (p *redisPersister) Save(ctx context.Context, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.key, data, p.maxAge).Err()
}

func (p *redisPersister) Load(ctx context.Context) (State, bool, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return State{}, false, nil
		}
		return State{}, false, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt blob is the same as no session.
		return State{}, false, nil
	}
	if p.maxAge > 0 && time.Since(s.IssuedAt) > p.maxAge {
		return State{}, false, nil
	}
	return s, true, nil
}

func (p *redisPersister) Clear(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}
