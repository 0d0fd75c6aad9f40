package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"sparrow/global"
	"sparrow/logger"
	mid "sparrow/middleware"
	chathandler "sparrow/module/chat"
	notifhandler "sparrow/module/notification"
	"sparrow/module/store"
	userhandler "sparrow/module/user"
	"sparrow/service/gateway"
	"sparrow/service/mgo"
	"sparrow/service/storage"
	jwtlib "sparrow/tools/security"
)

func main() {
	ctx := context.Background()

	global.ConfigIds()
	global.ConfigMiddleware()
	if err := global.ConfigRedis(); err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	if err := global.ConfigMgo(ctx); err != nil {
		log.Fatalf("mongo init failed: %v", err)
	}

	st := store.NewMongo(mgo.GetDB())
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes failed: %v", err)
	}

	bus, err := global.ConfigNats()
	if err != nil {
		log.Fatalf("nats init failed: %v", err)
	}
	if bus != nil {
		defer bus.Close()
	}

	gwID := global.GatewayID()
	opts := gateway.Options{
		Mirror: &storage.Mirror{GatewayID: gwID, TTL: storage.DefaultPresenceTTL},
	}
	if bus != nil {
		opts.Bus = bus
	}
	gw, err := gateway.NewServer(gwID, st, opts)
	if err != nil {
		log.Fatalf("gateway init failed: %v", err)
	}

	jwtOpts := jwtlib.DefaultOptions(global.GetJwtSecret())
	users := &userhandler.Handler{Store: st, Notifier: gw.Notifier(), JWT: jwtOpts}
	chats := &chathandler.Handler{Store: st}
	notifs := &notifhandler.Handler{Store: st}

	r := gin.New()
	r.Use(gin.Recovery(), mid.CORS())

	r.GET("/ws", gw.HandleWS)

	mid.POST(r, "/login", users.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/follow", users.HandlerFollow, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/unfollow", users.HandlerUnfollow, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/notifications", notifs.HandlerList, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/notifications/seen", notifs.HandlerMarkSeen, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/conversations", chats.HandlerStart, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/conversations/:id/messages", chats.HandlerMessages, mid.RouteOpt{IsAuth: true})

	addr := global.ListenAddr()
	logger.Infof("[http] gateway %s listening on %s", gwID, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}
