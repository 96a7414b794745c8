package rpc

import (
	"errors"
	"net/http"

	nativecommon "lockvault/native/common"
	"lockvault/native/lockup"
)

// writeEngineError maps engine failures onto RPC error codes. Validation
// failures surface as invalid params so callers know to correct and resubmit;
// permission and pause rejections get their own codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, lockup.ErrInsufficientPermission):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, id, codeModulePaused, err.Error(), nil)
	case errors.Is(err, lockup.ErrZeroAddress),
		errors.Is(err, lockup.ErrZeroAmount),
		errors.Is(err, lockup.ErrInvalidRatio),
		errors.Is(err, lockup.ErrInvalidLookback),
		errors.Is(err, lockup.ErrAlreadyRegistered),
		errors.Is(err, lockup.ErrInvalidTierIndex),
		errors.Is(err, lockup.ErrInvalidAmount),
		errors.Is(err, lockup.ErrInvalidDuration),
		errors.Is(err, lockup.ErrInvalidPeriod),
		errors.Is(err, lockup.ErrUnknownToken),
		errors.Is(err, lockup.ErrNoUnlockedTokens):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error", err.Error())
	}
}
