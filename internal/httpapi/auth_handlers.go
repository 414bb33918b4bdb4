package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/auth"
	"github.com/m-troja/taskstorm/internal/dto"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

func (a *API) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	u, err := auth.Register(a.db, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	pair, err := auth.Login(a.db, a.issuer, req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type regenerateRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) handleRegenerateTokens(c *gin.Context) {
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	pair, err := auth.RegenerateTokens(a.db, a.issuer, req.RefreshToken)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type resetPasswordRequest struct {
	UserID      int    `json:"userId"`
	NewPassword string `json:"newPassword"`
}

func (a *API) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid request body"))
		return
	}
	u, err := auth.ResetPassword(a.db, req.UserID, req.NewPassword)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(u))
}
