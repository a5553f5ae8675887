package api

import (
	"errors"
	"fmt"
	"net/http"

	"clipapi/errs"
	"clipapi/job"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError writes err as {"error": message} with the status of its kind.
// Causes of server-side failures are attached to the context for the request
// log and never sent to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	case errors.Is(err, job.ErrTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Job already finished"})
		return
	}

	message := "Internal server error"
	var e *errs.Error
	if errors.As(err, &e) {
		message = e.Message
	}

	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindUnavailable:
		status = http.StatusServiceUnavailable
	case errs.KindAdapter:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": message})
}

// respondBindError reports a request body that failed to bind.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": formatValidationErrors(verrs),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
}

func formatValidationErrors(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		out = append(out, msg)
	}
	return out
}
