package api

import (
	"github.com/bitmark-inc/covid-trends/area"
	"github.com/bitmark-inc/covid-trends/forecast"
	"github.com/bitmark-inc/covid-trends/store"
)

var (
	errorMessageMap = map[int64]string{
		999:  "internal server error",
		1000: "invalid api token",

		1010: "invalid parameters",
		1011: "invalid area type",
		1012: "invalid date",
		1013: forecast.ErrWindowTooSmall.Error(),

		1100: store.ErrSeriesNotFound.Error(),
		1101: area.ErrAreaNotFound.Error(),
		1102: "series cache is not loaded",
	}

	errorInternalServer  = errorJSON(999)
	errorInvalidAPIToken = errorJSON(1000)

	errorInvalidParameters = errorJSON(1010)
	errorInvalidAreaType   = errorJSON(1011)
	errorInvalidDate       = errorJSON(1012)
	errorWindowTooSmall    = errorJSON(1013)

	errorSeriesNotFound = errorJSON(1100)
	errorAreaNotFound   = errorJSON(1101)
	errorCacheNotLoaded = errorJSON(1102)
)

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// errorJSON converts an error code to a standardized error object
func errorJSON(code int64) ErrorResponse {
	var message string
	if msg, ok := errorMessageMap[code]; ok {
		message = msg
	} else {
		message = "unknown"
	}

	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}
