package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aniverse/walletbridge/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(auth *service.AuthService, log logrus.FieldLogger) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(auth, log)

	router.GET("/health", handlers.Health)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/flow-connect", handlers.FlowConnect)
		authGroup.GET("/wallet/:address", handlers.WalletByAddress)

		protected := authGroup.Group("")
		protected.Use(Authenticate(auth))
		{
			protected.GET("/me", handlers.Me)
			protected.PUT("/profile", handlers.UpdateProfile)
			protected.PUT("/preferences", handlers.UpdatePreferences)
			protected.POST("/logout", handlers.Logout)

			admin := protected.Group("/admin")
			admin.Use(RequireAdmin())
			{
				admin.GET("/users", handlers.AdminUsers)
				admin.PUT("/whitelist/:userId", handlers.AdminWhitelist)
			}
		}
	}

	return router
}
