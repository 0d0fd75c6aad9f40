package global

import (
	"context"
	"os"
	"strconv"
	"time"

	"sparrow/middleware"
	"sparrow/service/mgo"
	"sparrow/service/natsx"
	redisx "sparrow/service/storage/redis"
	"sparrow/tools/ids"
)

// Env-driven bootstrap. Defaults suit local development; production
// overrides everything through the environment.

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GatewayID() string {
	return env("GATEWAY_ID", "sparrow_gw-1")
}

func ListenAddr() string {
	return env("LISTEN_ADDR", ":8080")
}

func GetJwtSecret() []byte {
	return []byte(env("SPARROW_JWT_SECRET", "dev-only-secret-change-me"))
}

func ConfigIds() {
	node, _ := strconv.ParseInt(env("SNOWFLAKE_NODE", "1"), 10, 64)
	ids.SetNodeID(node)
}

func ConfigMiddleware() {
	middleware.Configure(GetJwtSecret())
}

func ConfigRedis() error {
	db, _ := strconv.Atoi(env("REDIS_DB", "0"))
	return redisx.InitRedis(redisx.Config{
		Addr:     env("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})
}

func ConfigMgo(ctx context.Context) error {
	return mgo.Init(ctx, mgo.Config{
		URI:      env("MONGO_URI", "mongodb://localhost:27017"),
		Database: env("MONGO_DB", "sparrow"),
		Username: os.Getenv("MONGO_USER"),
		Password: os.Getenv("MONGO_PASSWORD"),
		Timeout:  10 * time.Second,
	})
}

// ConfigNats returns nil when NATS_URL is unset: the notification bus is
// optional and the gateway runs fine without it.
func ConfigNats() (*natsx.Client, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, nil
	}
	return natsx.NewClient(natsx.Config{
		Servers: []string{url},
		Name:    GatewayID(),
	})
}
