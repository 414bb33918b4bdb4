package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/models"
)

// registerRoutes sets up the /api/v1 surface.
func registerRoutes(router *gin.Engine, api *API) {
	v1 := router.Group("/api/v1")

	// Public.
	v1.POST("/register", api.handleRegister)
	v1.POST("/login", api.handleLogin)
	v1.POST("/auth/regenerate-tokens", api.handleRegenerateTokens)

	// Authenticated.
	authed := v1.Group("", authRequired(api.issuer))

	issue := authed.Group("/issue")
	issue.POST("", api.handleCreateIssue)
	issue.POST("/slack", api.handleCreateIssueBySlack)
	issue.GET("/all", api.handleGetAllIssues)
	issue.GET("/id/:id", api.handleGetIssueByID)
	issue.GET("/id/:id/activity", api.handleGetIssueActivity)
	issue.GET("/key/:key", api.handleGetIssueByKey)
	issue.GET("/user/:userId", api.handleGetIssuesByUser)
	issue.GET("/project/:projectId", api.handleGetIssuesByProject)
	issue.GET("/team/:teamId", api.handleGetIssuesByTeam)
	issue.PUT("/rename", api.handleRenameIssue)
	issue.PUT("/assign", api.handleAssignIssue)
	issue.PUT("/slack/assign", api.handleAssignIssueBySlack)
	issue.PUT("/assign-team", api.handleAssignIssueTeam)
	issue.PUT("/update-status", api.handleUpdateIssueStatus)
	issue.PUT("/update-priority", api.handleUpdateIssuePriority)
	issue.PUT("/update-due-date", api.handleUpdateIssueDueDate)
	issue.DELETE("/all", api.handleDeleteAllIssues)
	issue.DELETE("/:id", api.handleDeleteIssue)

	usr := authed.Group("/user")
	usr.GET("/all", api.handleGetAllUsers)
	usr.GET("/id/:id", api.handleGetUserByID)
	usr.GET("/email/:email", api.handleGetUserByEmail)
	usr.GET("/slack/:slackId", api.handleGetUserBySlackID)
	usr.PUT("/:id", api.handleUpdateUser)
	usr.DELETE("/all", api.handleDeleteAllUsers)
	usr.DELETE("/:id", api.handleDeleteUser)

	team := authed.Group("/team")
	team.POST("", api.handleCreateTeam)
	team.GET("/all", api.handleGetAllTeams)
	team.GET("/id/:id", api.handleGetTeamByID)
	team.GET("/name/:name", api.handleGetTeamByName)
	team.GET("/users/:teamId", api.handleGetTeamUsers)
	team.PUT("/add-user", api.handleTeamAddUser)
	team.PUT("/remove-user", api.handleTeamRemoveUser)
	team.DELETE("/:id", api.handleDeleteTeam)

	proj := authed.Group("/project")
	proj.POST("", api.handleCreateProject)
	proj.GET("/all", api.handleGetAllProjects)
	proj.GET("/id/:id", api.handleGetProjectByID)
	proj.GET("/short/:shortName", api.handleGetProjectByShortName)
	proj.DELETE("/:id", api.handleDeleteProject)

	cmt := authed.Group("/comment")
	cmt.POST("", api.handleCreateComment)
	cmt.PUT("/:id", api.handleEditComment)
	cmt.GET("/issue/:issueId", api.handleGetCommentsByIssue)
	cmt.DELETE("/issue/:issueId", api.handleDeleteCommentsByIssue)
	cmt.DELETE("/:id", api.handleDeleteComment)

	file := authed.Group("/file")
	file.POST("", api.handleUploadFile)
	file.GET("/:id", api.handleDownloadFile)
	file.DELETE("/:id", api.handleDeleteFile)

	authed.POST("/chat/users/sync", api.handleSyncChatUsers)

	admin := authed.Group("/admin", requireRole(models.RoleAdmin))
	admin.PUT("/password", api.handleResetPassword)
}
