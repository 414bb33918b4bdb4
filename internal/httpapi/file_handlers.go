package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/storage"
	"github.com/m-troja/taskstorm/internal/taskerr"
)

type attachmentResponse struct {
	ID        int    `json:"id"`
	CommentID int    `json:"commentId"`
	FileName  string `json:"fileName"`
	URL       string `json:"url"`
}

func (a *API) handleUploadFile(c *gin.Context) {
	if a.store == nil {
		c.Error(taskerr.New(taskerr.ServerError, "file storage is not configured"))
		return
	}
	commentID, err := strconv.Atoi(c.PostForm("commentId"))
	if err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "invalid commentId"))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "missing file"))
		return
	}

	src, err := fh.Open()
	if err != nil {
		c.Error(taskerr.New(taskerr.BadRequest, "unreadable file"))
		return
	}
	defer src.Close()

	att, err := a.store.Save(a.db, commentID, fh.Filename, src)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, attachmentResponse{
		ID:        att.ID,
		CommentID: att.CommentID,
		FileName:  att.FileName,
		URL:       "/uploads/" + att.StoredName,
	})
}

func (a *API) handleDownloadFile(c *gin.Context) {
	if a.store == nil {
		c.Error(taskerr.New(taskerr.ServerError, "file storage is not configured"))
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	att, err := a.store.GetByID(a.db, id)
	if err != nil {
		c.Error(err)
		return
	}
	if ct := storage.ContentType(att.FileName); ct != "" {
		c.Header("Content-Type", ct)
	}
	c.FileAttachment(att.Path, att.FileName)
}

func (a *API) handleDeleteFile(c *gin.Context) {
	if a.store == nil {
		c.Error(taskerr.New(taskerr.ServerError, "file storage is not configured"))
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := a.store.Delete(a.db, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
