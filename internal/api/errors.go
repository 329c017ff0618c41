package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/export"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid field %s: failed %q", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// writeDomainError maps editing errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	var probeErr *media.ProbeError
	switch {
	case errors.Is(err, media.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &probeErr):
		status, code = http.StatusUnprocessableEntity, "PROBE_FAILED"
	case errors.Is(err, commands.ErrClipNotFound),
		errors.Is(err, commands.ErrTrackNotFound),
		errors.Is(err, templates.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, commands.ErrIncompatibleTrack),
		errors.Is(err, commands.ErrDuplicateClip),
		errors.Is(err, commands.ErrInvalidDuration),
		errors.Is(err, commands.ErrInvalidTime),
		errors.Is(err, commands.ErrInvalidName),
		errors.Is(err, commands.ErrInvalidFilter),
		errors.Is(err, timeline.ErrInvalidClip),
		errors.Is(err, media.ErrInvalidReference),
		errors.Is(err, export.ErrInvalidOutputDir):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, editor.ErrDragInProgress),
		errors.Is(err, editor.ErrNoDrag),
		errors.Is(err, editor.ErrNothingToUndo),
		errors.Is(err, editor.ErrNothingToRedo):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, editor.ErrNoVideoTrack),
		errors.Is(err, editor.ErrNoTrackOfKind),
		errors.Is(err, templates.ErrNotPlaceable),
		errors.Is(err, timeline.ErrNoSequence),
		errors.Is(err, media.ErrUnsupportedMedia),
		errors.Is(err, export.ErrEmptyPlan):
		status, code = http.StatusUnprocessableEntity, "UNPROCESSABLE"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	WriteError(w, status, msg, code)
}
