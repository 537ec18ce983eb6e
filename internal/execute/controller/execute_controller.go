package controller

import (
	stderrors "errors"
	"io"
	"net/http"

	"coderelay/internal/execute/service"
	pkgerrors "coderelay/pkg/errors"
	"coderelay/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps the request body of the execute endpoint.
const DefaultMaxBodyBytes = 100 << 10

// runtimeFailureFlag marks runtime failures detected in executor output.
const runtimeFailureFlag = "cplusplus"

// ExecuteController handles code execution endpoints.
type ExecuteController struct {
	executeService *service.ExecuteService
	maxBodyBytes   int64
}

// NewExecuteController creates a new ExecuteController.
func NewExecuteController(executeService *service.ExecuteService, maxBodyBytes int64) *ExecuteController {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ExecuteController{executeService: executeService, maxBodyBytes: maxBodyBytes}
}

// ExecuteRequest defines the execute payload.
type ExecuteRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Execute runs one submission on the remote executor.
func (h *ExecuteController) Execute(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			response.Error(c, pkgerrors.New(pkgerrors.CodeTooLarge))
		case stderrors.Is(err, io.EOF):
			response.Error(c, pkgerrors.BadRequest("Both language and code are required"))
		default:
			response.Error(c, pkgerrors.BadRequest("Request body must be a JSON object with string fields language and code"))
		}
		return
	}

	outcome, err := h.executeService.Execute(c.Request.Context(), service.ExecuteRequest{
		Language: req.Language,
		Code:     req.Code,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	switch outcome.Kind {
	case service.OutcomeSuccess:
		response.Raw(c, http.StatusOK, outcome.Payload)
	case service.OutcomeRuntimeFailure:
		response.JSON(c, http.StatusOK, gin.H{
			"error":            true,
			"output":           outcome.Output,
			runtimeFailureFlag: true,
		})
	case service.OutcomeCompilationFailure:
		response.ExecutionFailure(c, http.StatusInternalServerError, outcome.Detail, true)
	default:
		response.ExecutionFailure(c, outcome.StatusCode, outcome.Detail, outcome.CompilationError)
	}
}

// Languages lists the supported language names.
func (h *ExecuteController) Languages(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"languages": h.executeService.Languages()})
}
