package dto

import "github.com/m-troja/taskstorm/internal/models"

// FromIssue maps an issue entity (with eager-loaded key, comments, and
// relations) to its wire shape.
func FromIssue(is *models.Issue) Issue {
	out := Issue{
		ID:          is.ID,
		Title:       is.Title,
		Description: is.Description,
		Status:      string(is.Status),
		Priority:    string(models.PriorityNormal),
		AuthorID:    is.AuthorID,
		CreatedAt:   is.CreatedAt,
		DueDate:     is.DueDate,
		Comments:    FromComments(is.Comments),
	}
	if is.Key != nil {
		out.Key = is.Key.KeyString
	}
	if is.Priority != nil {
		out.Priority = string(*is.Priority)
	}
	if is.AssigneeID != nil {
		out.AssigneeID = *is.AssigneeID
	}
	if is.ProjectID != nil {
		out.ProjectID = *is.ProjectID
	}
	if is.TeamID != nil {
		out.TeamID = *is.TeamID
	}
	if !is.UpdatedAt.IsZero() {
		t := is.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// FromIssues maps a slice of issues.
func FromIssues(issues []models.Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for i := range issues {
		out = append(out, FromIssue(&issues[i]))
	}
	return out
}

// FromIssueSlack maps an issue to the chat-bridge shape. The author and
// assignee relations must be loaded; absent users yield empty Slack ids.
func FromIssueSlack(is *models.Issue) SlackIssue {
	out := SlackIssue{
		ID:          is.ID,
		Title:       is.Title,
		Description: is.Description,
		Status:      string(is.Status),
		Priority:    string(models.PriorityNormal),
		CreatedAt:   is.CreatedAt,
		DueDate:     is.DueDate,
	}
	if is.Key != nil {
		out.Key = is.Key.KeyString
	}
	if is.Priority != nil {
		out.Priority = string(*is.Priority)
	}
	if is.ProjectID != nil {
		out.ProjectID = *is.ProjectID
	}
	out.AuthorSlackID = is.Author.SlackUserID
	if is.Assignee != nil {
		out.AssigneeSlackID = is.Assignee.SlackUserID
	}
	return out
}

// FromComment maps a comment entity with its author and attachments.
func FromComment(c *models.Comment) Comment {
	ids := make([]int, 0, len(c.Attachments))
	for _, a := range c.Attachments {
		ids = append(ids, a.ID)
	}
	return Comment{
		ID:            c.ID,
		IssueID:       c.IssueID,
		Content:       c.Content,
		AuthorID:      c.AuthorID,
		AuthorName:    c.Author.FirstName + " " + c.Author.LastName,
		AuthorSlackID: c.Author.SlackUserID,
		AttachmentIDs: ids,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// FromComments maps a slice of comments.
func FromComments(comments []models.Comment) []Comment {
	out := make([]Comment, 0, len(comments))
	for i := range comments {
		out = append(out, FromComment(&comments[i]))
	}
	return out
}

// FromUser maps a user entity with loaded roles and teams.
func FromUser(u *models.User) User {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	teams := make([]string, 0, len(u.Teams))
	for _, t := range u.Teams {
		teams = append(teams, t.Name)
	}
	return User{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Roles:       roles,
		Teams:       teams,
		Disabled:    u.Disabled,
		SlackUserID: u.SlackUserID,
	}
}

// FromUsers maps a slice of users.
func FromUsers(users []models.User) []User {
	out := make([]User, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}

// FromTeam maps a team entity with loaded users and issues.
func FromTeam(t *models.Team) Team {
	users := make([]int, 0, len(t.Users))
	for _, u := range t.Users {
		users = append(users, u.ID)
	}
	issues := make([]int, 0, len(t.Issues))
	for _, is := range t.Issues {
		issues = append(issues, is.ID)
	}
	return Team{ID: t.ID, Name: t.Name, Issues: issues, Users: users}
}

// FromTeams maps a slice of teams.
func FromTeams(teams []models.Team) []Team {
	out := make([]Team, 0, len(teams))
	for i := range teams {
		out = append(out, FromTeam(&teams[i]))
	}
	return out
}

// FromProject maps a project entity with loaded issues.
func FromProject(p *models.Project) Project {
	return Project{
		ID:          p.ID,
		ShortName:   p.ShortName,
		Description: p.Description,
		Issues:      FromIssues(p.Issues),
		CreatedAt:   p.CreatedAt,
	}
}

// FromProjects maps a slice of projects.
func FromProjects(projects []models.Project) []Project {
	out := make([]Project, 0, len(projects))
	for i := range projects {
		out = append(out, FromProject(&projects[i]))
	}
	return out
}

// FromActivity maps an activity row.
func FromActivity(a *models.Activity) Activity {
	return Activity{
		ID:        a.ID,
		IssueID:   a.IssueID,
		Type:      string(a.Type),
		AuthorID:  a.AuthorID,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
		Timestamp: a.CreatedAt,
	}
}

// FromActivities maps a slice of activities.
func FromActivities(acts []models.Activity) []Activity {
	out := make([]Activity, 0, len(acts))
	for i := range acts {
		out = append(out, FromActivity(&acts[i]))
	}
	return out
}

// FromRefreshToken maps a refresh token entity to its wire shape.
func FromRefreshToken(rt *models.RefreshToken) Token {
	return Token{Token: rt.Token, Expires: rt.Expires}
}
