package server

import (
	"errors"
	"net/http"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/importer"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/mapping"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/parsererror"

	"github.com/gin-gonic/gin"
)

// errorBody is the JSON shape of every error answer.
type errorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// statusFor maps domain errors to HTTP statuses. Anything unknown is a
// server fault.
func statusFor(err error) (int, interface{}) {
	var (
		selection   *parsererror.TableSelectionError
		validation  *parsererror.ValidationError
		unsupported *parsererror.UnsupportedFormatError
		invalid     *parsererror.InvalidFormatError
		extraction  *parsererror.DataExtractionError
		parseErr    *parsererror.ParseError
		missing     *mapping.MissingFieldsError
	)

	switch {
	case errors.Is(err, importer.ErrSessionNotFound), errors.Is(err, importer.ErrRowNotFound):
		return http.StatusNotFound, nil
	case errors.Is(err, importer.ErrInvalidTransition):
		return http.StatusConflict, nil
	case errors.As(err, &selection):
		return http.StatusUnprocessableEntity, gin.H{"tables": selection.Tables}
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity, gin.H{"fields": missing.Fields}
	case errors.As(err, &validation):
		return http.StatusBadRequest, nil
	case errors.As(err, &unsupported), errors.As(err, &invalid),
		errors.As(err, &extraction), errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, nil
	case importer.IsUserError(err):
		return http.StatusUnprocessableEntity, nil
	case errors.Is(err, importer.ErrNoCommitter):
		return http.StatusServiceUnavailable, nil
	default:
		return http.StatusInternalServerError, nil
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, details := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed", logging.F("path", c.FullPath()))
	}
	c.JSON(status, errorBody{Error: err.Error(), Details: details})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}
