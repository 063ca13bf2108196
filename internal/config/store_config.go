package config

import "strconv"

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetCartDBPath() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetRedisAddr returns the Redis address for session state. Empty means the
// in-memory repositories are used instead.
func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

func (Store) GetCartDBPath() string {
	return GetEnv("CART_DB_PATH", "./data/cart.db")
}
