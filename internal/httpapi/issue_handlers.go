package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/activity"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/issue"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

// intParam parses a numeric path parameter, attaching a BAD_REQUEST error
// on failure.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return v, true
}

func (a *API) handleCreateIssue(c *gin.Context) {
	var req issue.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	if req.AuthorID == 0 {
		if claims := claimsFrom(c); claims != nil {
			req.AuthorID = claims.UserID
		}
	}
	created, err := issue.Create(c.Request.Context(), a.db, a.notifier, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) handleCreateIssueBySlack(c *gin.Context) {
	var req issue.SlackCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	created, err := issue.CreateBySlack(c.Request.Context(), a.db, a.notifier, a.directory, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) handleGetAllIssues(c *gin.Context) {
	issues, err := issue.GetAll(a.db)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIssues(issues))
}

func (a *API) handleGetIssueByID(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	out, err := issue.GetDTOByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) handleGetIssueActivity(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if _, err := issue.GetByID(a.db, id); err != nil {
		c.Error(err)
		return
	}
	acts, err := activity.ListByIssueID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromActivities(acts))
}

func (a *API) handleGetIssueByKey(c *gin.Context) {
	is, err := issue.GetByKey(a.db, c.Param("key"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIssue(is))
}

func (a *API) handleGetIssuesByUser(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		return
	}
	issues, err := issue.GetAllByUserID(a.db, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIssues(issues))
}

func (a *API) handleGetIssuesByProject(c *gin.Context) {
	projectID, ok := intParam(c, "projectId")
	if !ok {
		return
	}
	issues, err := issue.GetAllByProjectID(a.db, projectID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIssues(issues))
}

func (a *API) handleGetIssuesByTeam(c *gin.Context) {
	teamID, ok := intParam(c, "teamId")
	if !ok {
		return
	}
	issues, err := issue.GetAllByTeamID(a.db, teamID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIssues(issues))
}

type renameIssueRequest struct {
	IssueID int    `json:"issueId"`
	Title   string `json:"title"`
}

func (a *API) handleRenameIssue(c *gin.Context) {
	var req renameIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.Rename(a.db, req.IssueID, req.Title)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type assignIssueRequest struct {
	IssueID    int `json:"issueId"`
	AssigneeID int `json:"assigneeId"`
}

func (a *API) handleAssignIssue(c *gin.Context) {
	var req assignIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.Assign(c.Request.Context(), a.db, a.notifier, req.IssueID, req.AssigneeID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type slackAssignRequest struct {
	Key             string `json:"key"`
	AssigneeSlackID string `json:"assigneeSlackId"`
}

func (a *API) handleAssignIssueBySlack(c *gin.Context) {
	var req slackAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.AssignBySlack(c.Request.Context(), a.db, a.notifier, a.directory,
		req.Key, req.AssigneeSlackID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type assignTeamRequest struct {
	IssueID int `json:"issueId"`
	TeamID  int `json:"teamId"`
}

func (a *API) handleAssignIssueTeam(c *gin.Context) {
	var req assignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.AssignTeam(a.db, req.IssueID, req.TeamID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type updateStatusRequest struct {
	IssueID int    `json:"issueId"`
	Status  string `json:"status"`
}

func (a *API) handleUpdateIssueStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.ChangeStatus(c.Request.Context(), a.db, a.notifier, req.IssueID, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type updatePriorityRequest struct {
	IssueID  int    `json:"issueId"`
	Priority string `json:"priority"`
}

func (a *API) handleUpdateIssuePriority(c *gin.Context) {
	var req updatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.ChangePriority(c.Request.Context(), a.db, a.notifier, req.IssueID, req.Priority)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type updateDueDateRequest struct {
	IssueID int    `json:"issueId"`
	DueDate string `json:"dueDate"`
}

func (a *API) handleUpdateIssueDueDate(c *gin.Context) {
	var req updateDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	out, err := issue.UpdateDueDate(c.Request.Context(), a.db, a.notifier, req.IssueID, req.DueDate)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) handleDeleteIssue(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := issue.DeleteByID(c.Request.Context(), a.db, a.notifier, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleDeleteAllIssues(c *gin.Context) {
	if err := issue.DeleteAll(a.db); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
