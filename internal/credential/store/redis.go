package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"credential-orchestrator/internal/credential/domain"
	identitydomain "credential-orchestrator/internal/identity/domain"
)

// RedisConfig addresses the Redis instance backing a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key; defaults to "credentials:".
	Prefix string
}

// RedisStore keeps credentials as JSON under a key prefix with their secrets
// sealed. Saved credentials are ranked by a recency sorted set; hints live
// under the "hint:" sub-prefix in insertion order.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	sealer   *Sealer
	provider string
	nowF     func() time.Time
}

type sealedRecord struct {
	Identifier        string                              `json:"identifier"`
	Method            identitydomain.AuthenticationMethod `json:"method"`
	Password          string                              `json:"password,omitempty"`
	IDToken           string                              `json:"id_token,omitempty"`
	GeneratedPassword string                              `json:"generated_password,omitempty"`
	DisplayName       string                              `json:"display_name,omitempty"`
	PictureURI        string                              `json:"picture_uri,omitempty"`
}

// NewRedis connects to Redis and returns a store reporting provider as its name.
func NewRedis(ctx context.Context, cfg RedisConfig, sealer *Sealer, provider string) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("redis credential store requires a sealer")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "credentials:"
	}
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		sealer:   sealer,
		provider: provider,
		nowF:     time.Now,
	}, nil
}

func (s *RedisStore) credKey(member string) string { return s.prefix + "cred:" + member }
func (s *RedisStore) recentKey() string { return s.prefix + "recent" }
func (s *RedisStore) hintKey(id string) string { return s.prefix + "hint:" + id }
func (s *RedisStore) hintOrderKey() string { return s.prefix + "hint-order" }

// Retrieve returns the most recently saved credential whose method the request supports.
func (s *RedisStore) Retrieve(ctx context.Context, req domain.RetrieveRequest) (*domain.Credential, error) {
	members, err := s.client.ZRevRange(ctx, s.recentKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		rec, err := s.load(ctx, s.credKey(m))
		if errors.Is(err, redis.Nil) {
			_ = s.client.ZRem(ctx, s.recentKey(), m).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if !req.Supports(rec.Method) {
			continue
		}
		c, err := s.openCredential(rec)
		if err != nil {
			log.Printf("credential store: skipping %s: %v", m, err)
			continue
		}
		return c, nil
	}
	return nil, nil
}

// RequestHint returns the first added hint whose method the request supports.
func (s *RedisStore) RequestHint(ctx context.Context, req domain.RetrieveRequest) (*domain.Hint, error) {
	ids, err := s.client.ZRange(ctx, s.hintOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		rec, err := s.load(ctx, s.hintKey(id))
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !req.Supports(rec.Method) {
			continue
		}
		h, err := s.openHint(rec)
		if err != nil {
			log.Printf("credential store: skipping hint %s: %v", id, err)
			continue
		}
		return h, nil
	}
	return nil, nil
}

// Save stores c with its secrets sealed and marks it most recent.
func (s *RedisStore) Save(ctx context.Context, c domain.Credential) (domain.SaveResult, error) {
	if !validForSave(c) {
		return domain.SaveResultRejected, nil
	}
	password, err := s.sealer.Seal(c.Password)
	if err != nil {
		return "", err
	}
	idToken, err := s.sealer.Seal(c.IDToken)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(sealedRecord{
		Identifier:  c.Identifier,
		Method:      c.Method,
		Password:    password,
		IDToken:     idToken,
		DisplayName: c.DisplayName,
		PictureURI:  c.PictureURI,
	})
	if err != nil {
		return "", err
	}
	member := credentialKey(c)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.credKey(member), data, 0)
		pipe.ZAdd(ctx, s.recentKey(), redis.Z{Score: float64(s.nowF().UnixNano()), Member: member})
		return nil
	})
	if err != nil {
		return "", err
	}
	return domain.SaveResultSaved, nil
}

// AddHint offers h to later hint requests. Re-adding an identifier replaces its hint.
func (s *RedisStore) AddHint(ctx context.Context, h domain.Hint) error {
	generated, err := s.sealer.Seal(h.GeneratedPassword)
	if err != nil {
		return err
	}
	idToken, err := s.sealer.Seal(h.IDToken)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sealedRecord{
		Identifier:        h.Identifier,
		Method:            h.Method,
		GeneratedPassword: generated,
		IDToken:           idToken,
		DisplayName:       h.DisplayName,
		PictureURI:        h.PictureURI,
	})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.hintKey(h.Identifier), data, 0)
		pipe.ZAddNX(ctx, s.hintOrderKey(), redis.Z{Score: float64(s.nowF().UnixNano()), Member: h.Identifier})
		return nil
	})
	return err
}

func (s *RedisStore) ProviderName() string { return s.provider }

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, key string) (sealedRecord, error) {
	var rec sealedRecord
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *RedisStore) openCredential(rec sealedRecord) (*domain.Credential, error) {
	password, err := s.sealer.Open(rec.Password)
	if err != nil {
		return nil, err
	}
	idToken, err := s.sealer.Open(rec.IDToken)
	if err != nil {
		return nil, err
	}
	return &domain.Credential{
		Identifier:  rec.Identifier,
		Method:      rec.Method,
		Password:    password,
		IDToken:     idToken,
		DisplayName: rec.DisplayName,
		PictureURI:  rec.PictureURI,
	}, nil
}

func (s *RedisStore) openHint(rec sealedRecord) (*domain.Hint, error) {
	generated, err := s.sealer.Open(rec.GeneratedPassword)
	if err != nil {
		return nil, err
	}
	idToken, err := s.sealer.Open(rec.IDToken)
	if err != nil {
		return nil, err
	}
	return &domain.Hint{
		Identifier:        rec.Identifier,
		Method:            rec.Method,
		GeneratedPassword: generated,
		IDToken:           idToken,
		DisplayName:       rec.DisplayName,
		PictureURI:        rec.PictureURI,
	}, nil
}
