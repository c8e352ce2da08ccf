package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/handler"
)

// Setup 注册路由，db 为 nil 时不提供读模型查询
func Setup(e *engine.Engine, db *gorm.DB) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "imbue",
			"height":  e.CurrentHeight(),
		})
	})

	auth := handler.RequireAccount()
	projectHandler := handler.NewProjectHandler(e)
	voteHandler := handler.NewVoteHandler(e)
	roundHandler := handler.NewRoundHandler(e)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		v1.GET("/params", roundHandler.GetParams)
		v1.PUT("/params", auth, roundHandler.UpdateParams)

		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.POST("", auth, projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/whitelist", projectHandler.GetWhitelist)
			projects.POST("/:id/whitelist", auth, projectHandler.AddWhitelist)
			projects.DELETE("/:id/whitelist", auth, projectHandler.RemoveWhitelist)
			projects.POST("/:id/contributions", auth, projectHandler.Contribute)
			projects.POST("/:id/approve", auth, projectHandler.Approve)
			projects.POST("/:id/withdraw", auth, projectHandler.Withdraw)
			projects.POST("/:id/refund", auth, projectHandler.Refund)
			projects.GET("/:id/rounds/latest", roundHandler.LatestRound)

			projects.POST("/:id/milestones/:milestone/submit", auth, voteHandler.SubmitMilestone)
			projects.POST("/:id/milestones/:milestone/votes", auth, voteHandler.VoteOnMilestone)
			projects.POST("/:id/milestones/:milestone/finalise", auth, voteHandler.FinaliseMilestone)
			projects.GET("/:id/milestones/:milestone/vote", voteHandler.GetMilestoneVote)

			projects.POST("/:id/no-confidence", auth, voteHandler.RaiseNoConfidence)
			projects.POST("/:id/no-confidence/votes", auth, voteHandler.VoteOnNoConfidence)
			projects.POST("/:id/no-confidence/finalise", auth, voteHandler.FinaliseNoConfidence)
			projects.GET("/:id/no-confidence", voteHandler.GetNoConfidenceVote)
		}

		// 轮次相关路由
		rounds := v1.Group("/rounds")
		{
			rounds.POST("", auth, roundHandler.ScheduleRound)
			rounds.GET("", roundHandler.GetRounds)
			rounds.GET("/:id", roundHandler.GetRound)
			rounds.DELETE("/:id", auth, roundHandler.CancelRound)
		}

		if db != nil {
			recordHandler := handler.NewRecordHandler(db)
			records := v1.Group("/records")
			{
				records.GET("/projects", recordHandler.GetProjects)
				records.GET("/projects/:id", recordHandler.GetProject)
				records.GET("/projects/:id/stats", recordHandler.GetProjectStats)
				records.GET("/projects/:id/milestones", recordHandler.GetMilestones)
				records.GET("/projects/:id/contributions", recordHandler.GetContributions)
				records.GET("/projects/:id/refunds", recordHandler.GetRefunds)
				records.GET("/projects/:id/withdrawals", recordHandler.GetWithdrawals)
				records.GET("/accounts/:address/contributions", recordHandler.GetAccountContributions)
				records.GET("/events", recordHandler.GetEvents)
				records.GET("/events/:eventId", recordHandler.GetEvent)
				records.GET("/stats", recordHandler.GetStats)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, "+handler.AccountHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
