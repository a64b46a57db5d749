package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
	"github.com/jonathan/job-radar/internal/normalize"
	"github.com/jonathan/job-radar/internal/recommend"
	"github.com/jonathan/job-radar/internal/source"
)

// HTTPStatus maps a domain error to its HTTP status code.
func HTTPStatus(err error) int {
	var (
		normErr  *normalize.Error
		valErr   *recommend.ValidationError
		fetchErr *source.FetchError
		embErr   *embedding.Error
		storErr  *db.StorageError
	)
	switch {
	case errors.As(err, &normErr), errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &embErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &storErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
