package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pgadwala09/VocabPro-sub001/cache"
	"github.com/pgadwala09/VocabPro-sub001/controllers"
	"github.com/pgadwala09/VocabPro-sub001/database"
	"github.com/pgadwala09/VocabPro-sub001/models"
	"github.com/pgadwala09/VocabPro-sub001/routes"
	"github.com/pgadwala09/VocabPro-sub001/services"
)

func main() {
	_ = godotenv.Load()

	database.Connect()
	database.DB.AutoMigrate(
		&models.User{},
		&models.Debate{},
		&models.Turn{},
	)

	var debateCache *cache.DebateCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		debateCache = cache.New(redis.NewClient(&redis.Options{Addr: addr}))
	}

	engine := services.NewTurnEngine(database.DB)
	session := services.NewDebateSession(database.DB, engine, debateCache)
	sweeper := services.NewSweeper(engine, services.SweepIntervalFromEnv())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	r := gin.Default()
	routes.UserRoutes(r)
	routes.DebateRoutes(r, controllers.NewDebateController(session, engine, sweeper))

	r.Run()
}
