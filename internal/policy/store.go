package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store resolves and persists per-user privacy configuration.
type Store interface {
	SetLevel(ctx context.Context, userID string, level Level) error
	LevelFor(ctx context.Context, userID string) (Level, error)
	SetRetention(ctx context.Context, userID string, p RetentionPolicy) error
	RetentionFor(ctx context.Context, userID string) (RetentionPolicy, error)
	SetAgeTier(ctx context.Context, userID string, tier AgeTier) error
	AgeTierFor(ctx context.Context, userID string) (AgeTier, error)
	SetFamily(ctx context.Context, familyID string, members []string) error
	FamilyMembers(ctx context.Context, userID string) ([]string, error)
	// EffectiveLevel resolves the most restrictive level across the user and
	// the rest of their family group.
	EffectiveLevel(ctx context.Context, userID string) (Level, error)
}

type userPolicy struct {
	mu        sync.Mutex
	level     Level
	retention *RetentionPolicy
	ageTier   AgeTier
}

// MemoryStore is an in-process Store. Buckets are created per user so
// unrelated users never contend on the same lock.
type MemoryStore struct {
	defaultLevel Level

	mu       sync.RWMutex
	users    map[string]*userPolicy
	families map[string][]string // familyID -> members
	memberOf map[string]string   // userID -> familyID
}

// NewMemoryStore creates a MemoryStore with the given fallback level for
// unconfigured users. An invalid default falls back to STANDARD.
func NewMemoryStore(defaultLevel Level) *MemoryStore {
	if !defaultLevel.Valid() {
		defaultLevel = LevelStandard
	}
	return &MemoryStore{
		defaultLevel: defaultLevel,
		users:        make(map[string]*userPolicy),
		families:     make(map[string][]string),
		memberOf:     make(map[string]string),
	}
}

func (s *MemoryStore) bucket(userID string) *userPolicy {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return u
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok = s.users[userID]; ok {
		return u
	}
	u = &userPolicy{}
	s.users[userID] = u
	return u
}

func (s *MemoryStore) SetLevel(_ context.Context, userID string, level Level) error {
	if !level.Valid() {
		return &ConfigurationError{Field: "privacy_level", Reason: fmt.Sprintf("unknown level %q", level)}
	}
	u := s.bucket(userID)
	u.mu.Lock()
	u.level = level
	u.mu.Unlock()
	return nil
}

func (s *MemoryStore) LevelFor(_ context.Context, userID string) (Level, error) {
	u := s.bucket(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.level.Valid() {
		return u.level, nil
	}
	if u.ageTier != "" {
		return u.ageTier.DefaultLevel(), nil
	}
	return s.defaultLevel, nil
}

func (s *MemoryStore) SetRetention(_ context.Context, userID string, p RetentionPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	u := s.bucket(userID)
	u.mu.Lock()
	u.retention = &p
	u.mu.Unlock()
	return nil
}

func (s *MemoryStore) RetentionFor(ctx context.Context, userID string) (RetentionPolicy, error) {
	u := s.bucket(userID)
	u.mu.Lock()
	if u.retention != nil {
		p := *u.retention
		u.mu.Unlock()
		return p, nil
	}
	u.mu.Unlock()
	level, err := s.LevelFor(ctx, userID)
	if err != nil {
		return RetentionPolicy{}, err
	}
	return DefaultRetention(level), nil
}

func (s *MemoryStore) SetAgeTier(_ context.Context, userID string, tier AgeTier) error {
	switch tier {
	case AgeTierChild, AgeTierTeen, AgeTierAdult:
	default:
		return &ConfigurationError{Field: "age_tier", Reason: fmt.Sprintf("unknown tier %q", tier)}
	}
	u := s.bucket(userID)
	u.mu.Lock()
	u.ageTier = tier
	u.mu.Unlock()
	return nil
}

func (s *MemoryStore) AgeTierFor(_ context.Context, userID string) (AgeTier, error) {
	u := s.bucket(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ageTier != "" {
		return u.ageTier, nil
	}
	return AgeTierAdult, nil
}

func (s *MemoryStore) SetFamily(_ context.Context, familyID string, members []string) error {
	if familyID == "" {
		return &ConfigurationError{Field: "family_id", Reason: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prev := range s.families[familyID] {
		delete(s.memberOf, prev)
	}
	s.families[familyID] = append([]string(nil), members...)
	for _, m := range members {
		s.memberOf[m] = familyID
	}
	return nil
}

func (s *MemoryStore) FamilyMembers(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	familyID, ok := s.memberOf[userID]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), s.families[familyID]...), nil
}

func (s *MemoryStore) EffectiveLevel(ctx context.Context, userID string) (Level, error) {
	members, err := s.FamilyMembers(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		members = []string{userID}
	}
	levels := make([]Level, 0, len(members))
	for _, m := range members {
		l, err := s.LevelFor(ctx, m)
		if err != nil {
			return "", err
		}
		levels = append(levels, l)
	}
	return MostRestrictive(levels...), nil
}

// RedisStore persists policy records in Redis so every node of a family
// deployment resolves the same configuration.
type RedisStore struct {
	redis        *redis.Client
	defaultLevel Level
}

type policyRecord struct {
	Level     Level            `json:"level,omitempty"`
	Retention *RetentionPolicy `json:"retention,omitempty"`
	AgeTier   AgeTier          `json:"age_tier,omitempty"`
}

// NewRedisStore creates a RedisStore. The client must not be nil.
func NewRedisStore(client *redis.Client, defaultLevel Level) *RedisStore {
	if client == nil {
		panic("policy: redis client cannot be nil")
	}
	if !defaultLevel.Valid() {
		defaultLevel = LevelStandard
	}
	return &RedisStore{redis: client, defaultLevel: defaultLevel}
}

func policyKey(userID string) string {
	return fmt.Sprintf("privacy:policy:%s", userID)
}

func familyKey(familyID string) string {
	return fmt.Sprintf("privacy:family:%s", familyID)
}

func memberKey(userID string) string {
	return fmt.Sprintf("privacy:member:%s", userID)
}

func (s *RedisStore) load(ctx context.Context, userID string) (policyRecord, error) {
	var rec policyRecord
	data, err := s.redis.Get(ctx, policyKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return rec, nil
		}
		return rec, fmt.Errorf("policy: load record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return policyRecord{}, fmt.Errorf("policy: decode record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) save(ctx context.Context, userID string, rec policyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("policy: encode record: %w", err)
	}
	if err := s.redis.Set(ctx, policyKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("policy: persist record: %w", err)
	}
	return nil
}

func (s *RedisStore) SetLevel(ctx context.Context, userID string, level Level) error {
	if !level.Valid() {
		return &ConfigurationError{Field: "privacy_level", Reason: fmt.Sprintf("unknown level %q", level)}
	}
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.Level = level
	return s.save(ctx, userID, rec)
}

func (s *RedisStore) LevelFor(ctx context.Context, userID string) (Level, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec.Level.Valid() {
		return rec.Level, nil
	}
	if rec.AgeTier != "" {
		return rec.AgeTier.DefaultLevel(), nil
	}
	return s.defaultLevel, nil
}

func (s *RedisStore) SetRetention(ctx context.Context, userID string, p RetentionPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.Retention = &p
	return s.save(ctx, userID, rec)
}

func (s *RedisStore) RetentionFor(ctx context.Context, userID string) (RetentionPolicy, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return RetentionPolicy{}, err
	}
	if rec.Retention != nil {
		return *rec.Retention, nil
	}
	level, err := s.LevelFor(ctx, userID)
	if err != nil {
		return RetentionPolicy{}, err
	}
	return DefaultRetention(level), nil
}

func (s *RedisStore) SetAgeTier(ctx context.Context, userID string, tier AgeTier) error {
	switch tier {
	case AgeTierChild, AgeTierTeen, AgeTierAdult:
	default:
		return &ConfigurationError{Field: "age_tier", Reason: fmt.Sprintf("unknown tier %q", tier)}
	}
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.AgeTier = tier
	return s.save(ctx, userID, rec)
}

func (s *RedisStore) AgeTierFor(ctx context.Context, userID string) (AgeTier, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec.AgeTier != "" {
		return rec.AgeTier, nil
	}
	return AgeTierAdult, nil
}

func (s *RedisStore) SetFamily(ctx context.Context, familyID string, members []string) error {
	if familyID == "" {
		return &ConfigurationError{Field: "family_id", Reason: "must not be empty"}
	}
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("policy: encode family: %w", err)
	}
	if prev, err := s.redis.Get(ctx, familyKey(familyID)).Bytes(); err == nil {
		var old []string
		if json.Unmarshal(prev, &old) == nil {
			for _, m := range old {
				if err := s.redis.Del(ctx, memberKey(m)).Err(); err != nil {
					return fmt.Errorf("policy: clear member index: %w", err)
				}
			}
		}
	}
	if err := s.redis.Set(ctx, familyKey(familyID), data, 0).Err(); err != nil {
		return fmt.Errorf("policy: persist family: %w", err)
	}
	for _, m := range members {
		if err := s.redis.Set(ctx, memberKey(m), familyID, 0).Err(); err != nil {
			return fmt.Errorf("policy: index member: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) FamilyMembers(ctx context.Context, userID string) ([]string, error) {
	familyID, err := s.redis.Get(ctx, memberKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("policy: resolve family: %w", err)
	}
	data, err := s.redis.Get(ctx, familyKey(familyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("policy: load family: %w", err)
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("policy: decode family: %w", err)
	}
	return members, nil
}

func (s *RedisStore) EffectiveLevel(ctx context.Context, userID string) (Level, error) {
	members, err := s.FamilyMembers(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		members = []string{userID}
	}
	levels := make([]Level, 0, len(members))
	for _, m := range members {
		l, err := s.LevelFor(ctx, m)
		if err != nil {
			return "", err
		}
		levels = append(levels, l)
	}
	return MostRestrictive(levels...), nil
}
