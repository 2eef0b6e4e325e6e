package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions are Redis hashes: fixed fields for metadata and identity plus one
// "tok:<name>" field per token. A set per user indexes authenticated sessions.
const (
	fieldCreatedAt       = "created_at"
	fieldLastSeenAt      = "last_seen_at"
	fieldExpiresAt       = "expires_at"
	fieldUserID          = "user_id"
	fieldDisplayName     = "display_name"
	fieldRole            = "role"
	fieldAuthenticatedAt = "authenticated_at"
	tokenFieldPrefix     = "tok:"
)

// KEYS[1] session; ARGV[1] expire-at in unix ms or ""; ARGV[2..] field/value pairs.
const updateIfExistsScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
for i = 2, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
if ARGV[1] ~= "" then
  redis.call("PEXPIREAT", KEYS[1], ARGV[1])
end
return 1
`

var updateIfExistsLua = redis.NewScript(updateIfExistsScript)

// KEYS[1] session; ARGV[1] field, ARGV[2] expected, ARGV[3] next.
const swapTokenScript = `
local current = redis.call("HGET", KEYS[1], ARGV[1])
if not current or current == "" or current ~= ARGV[2] then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
return 1
`

var swapTokenLua = redis.NewScript(swapTokenScript)

// KEYS[1] old session, KEYS[2] new session; ARGV[1] user index prefix,
// ARGV[2] old id, ARGV[3] new id.
const renameScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("RENAME", KEYS[1], KEYS[2])
local uid = redis.call("HGET", KEYS[2], "user_id")
if uid and uid ~= "" then
  local idx = ARGV[1] .. uid
  redis.call("SREM", idx, ARGV[2])
  redis.call("SADD", idx, ARGV[3])
end
return 1
`

var renameLua = redis.NewScript(renameScript)

// KEYS[1] session; ARGV[1] user index prefix, ARGV[2] id.
const deleteScript = `
local uid = redis.call("HGET", KEYS[1], "user_id")
redis.call("DEL", KEYS[1])
if uid and uid ~= "" then
  redis.call("SREM", ARGV[1] .. uid, ARGV[2])
end
return 1
`

var deleteLua = redis.NewScript(deleteScript)

// RedisStore shares sessions between application instances. Expiry is
// delegated to Redis key deadlines.
//
// Every key carries the prefix as a hash tag, "{prefix}:session:<id>" and
// "{prefix}:user:<uid>", so the scripts and transactions that touch a session
// and its user index stay in one cluster slot.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{redis: client, prefix: "{" + prefix + "}"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":session:" + id
}

func (s *RedisStore) userPrefix() string {
	return s.prefix + ":user:"
}

func (s *RedisStore) userKey(userID string) string {
	return s.userPrefix() + userID
}

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	values := map[string]any{
		fieldCreatedAt:  formatTime(sess.CreatedAt),
		fieldLastSeenAt: formatTime(sess.LastSeenAt),
		fieldExpiresAt:  formatTime(sess.ExpiresAt),
	}
	for name, v := range sess.Tokens {
		values[tokenFieldPrefix+name] = v
	}
	if sess.Identity != nil {
		for k, v := range identityFields(*sess.Identity) {
			values[k] = v
		}
	}

	key := s.key(sess.ID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.ExpireAt(ctx, key, sess.ExpiresAt)
		if sess.Identity != nil {
			pipe.SAdd(ctx, s.userKey(sess.Identity.UserID), sess.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	sess, err := decodeSession(id, fields)
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error {
	return s.update(ctx, id, strconv.FormatInt(expiresAt.UnixMilli(), 10),
		fieldLastSeenAt, formatTime(lastSeen),
		fieldExpiresAt, formatTime(expiresAt))
}

func (s *RedisStore) SetToken(ctx context.Context, id, name, value string) error {
	return s.update(ctx, id, "", tokenFieldPrefix+name, value)
}

func (s *RedisStore) SwapToken(ctx context.Context, id, name, expected, next string) (bool, error) {
	n, err := swapTokenLua.Run(ctx, s.redis, []string{s.key(id)}, tokenFieldPrefix+name, expected, next).Int()
	if err != nil {
		return false, fmt.Errorf("redis swap token: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) SetIdentity(ctx context.Context, id string, identity Identity) error {
	fields := identityFields(identity)
	args := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := s.update(ctx, id, "", args...); err != nil {
		return err
	}
	if err := s.redis.SAdd(ctx, s.userKey(identity.UserID), id).Err(); err != nil {
		return fmt.Errorf("redis index session: %w", err)
	}
	return nil
}

func (s *RedisStore) Rename(ctx context.Context, oldID, newID string) error {
	n, err := renameLua.Run(ctx, s.redis,
		[]string{s.key(oldID), s.key(newID)},
		s.userPrefix(), oldID, newID).Int()
	if err != nil {
		return fmt.Errorf("redis rename session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser prunes index entries whose session is gone or now belongs to
// another user.
func (s *RedisStore) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	idx := s.userKey(userID)
	ids, err := s.redis.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sessions: %w", err)
	}

	var out []*Session
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) || (err == nil && (sess.Identity == nil || sess.Identity.UserID != userID)) {
			s.redis.SRem(ctx, idx, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := deleteLua.Run(ctx, s.redis, []string{s.key(id)}, s.userPrefix(), id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) update(ctx context.Context, id, expireAt string, pairs ...string) error {
	args := make([]any, 0, len(pairs)+1)
	args = append(args, expireAt)
	for _, p := range pairs {
		args = append(args, p)
	}
	n, err := updateIfExistsLua.Run(ctx, s.redis, []string{s.key(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func identityFields(id Identity) map[string]string {
	return map[string]string{
		fieldUserID:          id.UserID,
		fieldDisplayName:     id.DisplayName,
		fieldRole:            id.Role,
		fieldAuthenticatedAt: formatTime(id.AuthenticatedAt),
	}
}

func decodeSession(id string, fields map[string]string) (*Session, error) {
	sess := &Session{ID: id, Tokens: map[string]string{}}

	var err error
	if sess.CreatedAt, err = parseTime(fields[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", fieldCreatedAt, err)
	}
	if sess.LastSeenAt, err = parseTime(fields[fieldLastSeenAt]); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", fieldLastSeenAt, err)
	}
	if sess.ExpiresAt, err = parseTime(fields[fieldExpiresAt]); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", fieldExpiresAt, err)
	}

	if uid := fields[fieldUserID]; uid != "" {
		authAt, err := parseTime(fields[fieldAuthenticatedAt])
		if err != nil {
			return nil, fmt.Errorf("corrupt session %s: %w", fieldAuthenticatedAt, err)
		}
		sess.Identity = &Identity{
			UserID:          uid,
			DisplayName:     fields[fieldDisplayName],
			Role:            fields[fieldRole],
			AuthenticatedAt: authAt,
		}
	}

	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, tokenFieldPrefix); ok {
			sess.Tokens[name] = v
		}
	}
	return sess, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n), nil
}
