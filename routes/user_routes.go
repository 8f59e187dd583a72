package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pgadwala09/VocabPro-sub001/controllers"
	"github.com/pgadwala09/VocabPro-sub001/middleware"
)

func UserRoutes(r *gin.Engine) {
	r.POST("/users", controllers.CreateUser)
	r.POST("/login", controllers.LoginUser)

	auth := r.Group("/users")
	auth.Use(middleware.RequireAuth())
	{
		auth.GET("/me", controllers.GetCurrentUser)
	}
}
