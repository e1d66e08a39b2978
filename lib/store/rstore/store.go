package rstore

import (
	"context"
	"errors"

	"github.com/ValentinKolb/redispool/lib/redispool"
	"github.com/ValentinKolb/redispool/lib/store"
	"github.com/gomodule/redigo/redis"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

// compareAndDeleteScript deletes KEYS[1] if its value equals ARGV[1]
var compareAndDeleteScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisStore creates a store that runs every operation on a connection
// checked out from the pool
func NewRedisStore(pool *redispool.Pool) store.IStore {
	return &redisStore{
		pool: pool,
		ctx:  context.Background(),
	}
}

type redisStore struct {
	pool *redispool.Pool
	ctx  context.Context
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *redisStore) Set(key string, value []byte) error {
	return s.do(func(conn redis.Conn) error {
		_, err := conn.Do("SET", key, value)
		return err
	})
}

func (s *redisStore) SetE(key string, value []byte, deleteIn uint64) error {
	return s.do(func(conn redis.Conn) error {
		_, err := conn.Do("SET", setArgs(key, value, deleteIn)...)
		return err
	})
}

func (s *redisStore) SetEIfUnset(key string, value []byte, deleteIn uint64) error {
	return s.do(func(conn redis.Conn) error {
		// the reply is nil if the key already exists, which is not an error
		_, err := conn.Do("SET", append(setArgs(key, value, deleteIn), "NX")...)
		return err
	})
}

func (s *redisStore) Delete(key string) error {
	return s.do(func(conn redis.Conn) error {
		_, err := conn.Do("DEL", key)
		return err
	})
}

func (s *redisStore) CompareAndDelete(key string, value []byte) (deleted bool, err error) {
	err = s.do(func(conn redis.Conn) error {
		n, err := redis.Int(compareAndDeleteScript.Do(conn, key, value))
		deleted = n > 0
		return err
	})
	return deleted, err
}

func (s *redisStore) Get(key string) (value []byte, loaded bool, err error) {
	err = s.do(func(conn redis.Conn) error {
		value, err = redis.Bytes(conn.Do("GET", key))
		if errors.Is(err, redis.ErrNil) {
			return nil
		}
		loaded = err == nil
		return err
	})
	return value, loaded, err
}

func (s *redisStore) Has(key string) (loaded bool, err error) {
	err = s.do(func(conn redis.Conn) error {
		loaded, err = redis.Bool(conn.Do("EXISTS", key))
		return err
	})
	return loaded, err
}

func (s *redisStore) Size() (size uint64, err error) {
	err = s.do(func(conn redis.Conn) error {
		size, err = redis.Uint64(conn.Do("DBSIZE"))
		return err
	})
	return size, err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// do runs fn on a pooled connection and converts the error to a *store.Error
func (s *redisStore) do(fn func(conn redis.Conn) error) error {
	err := s.pool.With(s.ctx, fn)
	if err == nil {
		return nil
	}

	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return store.NewError(store.RetCInvalidOperation, err)
	}

	Logger.Warningf("store operation failed: %v", err)
	return store.NewError(store.RetCInternalError, err)
}

func setArgs(key string, value []byte, deleteIn uint64) []interface{} {
	args := []interface{}{key, value}
	if deleteIn > 0 {
		args = append(args, "EX", deleteIn)
	}
	return args
}
