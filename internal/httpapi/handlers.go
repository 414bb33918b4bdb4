package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/comment"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/project"
	"github.com/m-troja/taskstorm/internal/taskerr"
	"github.com/m-troja/taskstorm/internal/team"
	"github.com/m-troja/taskstorm/internal/user"
)

// Users.

func (a *API) handleGetAllUsers(c *gin.Context) {
	users, err := user.GetAll(a.db)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

func (a *API) handleGetUserByID(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	u, err := user.GetByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(u))
}

func (a *API) handleGetUserByEmail(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	u, err := user.GetByEmail(a.db, email)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(u))
}

type updateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	SlackUserID string `json:"slackUserId"`
	Disabled    bool   `json:"disabled"`
}

func (a *API) handleUpdateUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	u, err := user.GetByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u.SlackUserID = req.SlackUserID
	u.Disabled = req.Disabled
	if err := user.Update(a.db, u); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(u))
}

func (a *API) handleGetUserBySlackID(c *gin.Context) {
	u, err := user.GetBySlackUserID(a.db, c.Param("slackId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(u))
}

func (a *API) handleDeleteUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := user.DeleteByID(a.db, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleDeleteAllUsers(c *gin.Context) {
	if err := user.DeleteAll(a.db); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleSyncChatUsers(c *gin.Context) {
	if a.directory == nil {
		c.Error(taskerr.New(taskerr.ChatError, "chat bridge is not configured"))
		return
	}
	profiles, err := a.directory.FetchUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	created, err := user.SyncSlackUsers(a.db, profiles)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(created))
}

// Teams.

type createTeamRequest struct {
	Name string `json:"name"`
}

func (a *API) handleCreateTeam(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	tm, err := team.Create(a.db, req.Name)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTeam(tm))
}

func (a *API) handleGetAllTeams(c *gin.Context) {
	teams, err := team.GetAll(a.db)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeams(teams))
}

func (a *API) handleGetTeamByID(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	tm, err := team.GetByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeam(tm))
}

func (a *API) handleGetTeamByName(c *gin.Context) {
	tm, err := team.GetByName(a.db, c.Param("name"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeam(tm))
}

func (a *API) handleGetTeamUsers(c *gin.Context) {
	teamID, ok := intParam(c, "teamId")
	if !ok {
		return
	}
	users, err := team.UsersByTeam(a.db, teamID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

type teamMemberRequest struct {
	TeamID int `json:"teamId"`
	UserID int `json:"userId"`
}

func (a *API) handleTeamAddUser(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	tm, err := team.AddUser(a.db, req.TeamID, req.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeam(tm))
}

func (a *API) handleTeamRemoveUser(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	tm, err := team.RemoveUser(a.db, req.TeamID, req.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTeam(tm))
}

func (a *API) handleDeleteTeam(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := team.DeleteByID(a.db, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Projects.

type createProjectRequest struct {
	ShortName   string `json:"shortName"`
	Description string `json:"description"`
}

func (a *API) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	p, err := project.Create(a.db, req.ShortName, req.Description)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromProject(p))
}

func (a *API) handleGetAllProjects(c *gin.Context) {
	projects, err := project.GetAll(a.db)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProjects(projects))
}

func (a *API) handleGetProjectByID(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	p, err := project.GetByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProject(p))
}

func (a *API) handleGetProjectByShortName(c *gin.Context) {
	p, err := project.GetByShortName(a.db, c.Param("shortName"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProject(p))
}

func (a *API) handleDeleteProject(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := project.DeleteByID(a.db, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Comments.

type createCommentRequest struct {
	IssueID  int    `json:"issueId"`
	AuthorID int    `json:"authorId"`
	Content  string `json:"content"`
}

func (a *API) handleCreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	if req.AuthorID == 0 {
		if claims := claimsFrom(c); claims != nil {
			req.AuthorID = claims.UserID
		}
	}
	cm, err := comment.Create(c.Request.Context(), a.db, a.notifier, req.IssueID, req.AuthorID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromComment(cm))
}

type editCommentRequest struct {
	Content string `json:"content"`
}

func (a *API) handleEditComment(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	cm, err := comment.Edit(a.db, id, req.Content)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromComment(cm))
}

func (a *API) handleGetCommentsByIssue(c *gin.Context) {
	issueID, ok := intParam(c, "issueId")
	if !ok {
		return
	}
	comments, err := comment.GetByIssueID(a.db, issueID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromComments(comments))
}

func (a *API) handleDeleteComment(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := comment.DeleteByID(a.db, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleDeleteCommentsByIssue(c *gin.Context) {
	issueID, ok := intParam(c, "issueId")
	if !ok {
		return
	}
	if err := comment.DeleteAllByIssueID(a.db, issueID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
