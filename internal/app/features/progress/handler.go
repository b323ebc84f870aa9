// internal/app/features/progress/handler.go
package progress

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - ActivityID / activityID: The caller-chosen key of a video activity

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	progressstore "github.com/dalemusser/eventhub/internal/app/store/progress"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/progresstrack"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Recorder reads and merges stored progress.
type Recorder interface {
	Get(ctx context.Context, userID primitive.ObjectID, activityID string) (models.ActivityProgress, error)
	Record(ctx context.Context, p models.ActivityProgress) (models.ActivityProgress, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ActivityProgress, error)
}

// Handler takes player position reports.
type Handler struct {
	Progress Recorder
	Throttle progresstrack.Throttle
	Log      *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new progress handler.
func NewHandler(db *mongo.Database, throttle progresstrack.Throttle, logger *zap.Logger) *Handler {
	return &Handler{
		Progress: progressstore.New(db),
		Throttle: throttle,
		Log:      logger,
	}
}

// reportRequest is the JSON body of a position report. Percent is used
// only when Duration is unknown.
type reportRequest struct {
	Seconds  float64 `json:"seconds"`
	Duration float64 `json:"duration"`
	Percent  float64 `json:"percent"`
}

type progressResponse struct {
	ActivityID string  `json:"activity_id"`
	Percent    float64 `json:"percent"`
	Seconds    float64 `json:"seconds"`
	Completed  bool    `json:"completed"`
	Persisted  bool    `json:"persisted"`
}

type listResponse struct {
	Activities []progressResponse `json:"activities"`
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now().UTC()
}

// HandleReport handles POST /progress/{activityID}.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	userID, activityID, ok := target(w, r)
	if !ok {
		return
	}

	var req reportRequest
	if err := apierrors.Decode(r, &req); err != nil || !finite(req.Seconds, req.Duration, req.Percent) {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	pct := progresstrack.Percent(req.Seconds, req.Duration)
	if req.Duration <= 0 {
		pct = math.Max(0, math.Min(100, req.Percent))
	}
	next := progresstrack.Sample{Percent: pct, Seconds: math.Max(0, req.Seconds), At: h.clock()}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var last *progresstrack.Sample
	stored, err := h.Progress.Get(ctx, userID, activityID)
	switch {
	case err == nil:
		last = &progresstrack.Sample{Percent: stored.Percent, Seconds: stored.Seconds, At: stored.UpdatedAt}
	case errors.Is(err, progressstore.ErrNotFound):
	default:
		h.Log.Warn("progress: load failed", zap.Error(err), zap.String("activity_id", activityID))
		apierrors.Error(w, http.StatusServiceUnavailable, "Progress could not be saved.")
		return
	}

	if !h.Throttle.ShouldPersist(last, next) {
		apierrors.JSON(w, http.StatusOK, progressResponse{
			ActivityID: activityID,
			Percent:    stored.Percent,
			Seconds:    stored.Seconds,
			Completed:  stored.Completed,
		})
		return
	}

	saved, err := h.Progress.Record(ctx, models.ActivityProgress{
		UserID:     userID,
		ActivityID: activityID,
		Percent:    next.Percent,
		Seconds:    next.Seconds,
		Completed:  h.Throttle.Completed(next.Percent),
	})
	if err != nil {
		h.Log.Warn("progress: record failed", zap.Error(err), zap.String("activity_id", activityID))
		apierrors.Error(w, http.StatusServiceUnavailable, "Progress could not be saved.")
		return
	}
	apierrors.JSON(w, http.StatusOK, progressResponse{
		ActivityID: activityID,
		Percent:    saved.Percent,
		Seconds:    saved.Seconds,
		Completed:  saved.Completed,
		Persisted:  true,
	})
}

// ServeProgress handles GET /progress/{activityID}.
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	userID, activityID, ok := target(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Progress.Get(ctx, userID, activityID)
	switch {
	case err == nil, errors.Is(err, progressstore.ErrNotFound):
	default:
		h.Log.Warn("progress: load failed", zap.Error(err), zap.String("activity_id", activityID))
		apierrors.Error(w, http.StatusServiceUnavailable, "Progress is unavailable.")
		return
	}
	apierrors.JSON(w, http.StatusOK, progressResponse{
		ActivityID: activityID,
		Percent:    p.Percent,
		Seconds:    p.Seconds,
		Completed:  p.Completed,
	})
}

// ServeList handles GET /progress: every activity of the signed-in user,
// most recently updated first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Progress.ListByUser(ctx, userID)
	if err != nil {
		h.Log.Warn("progress: list failed", zap.Error(err), zap.String("user_id", userID.Hex()))
		apierrors.Error(w, http.StatusServiceUnavailable, "Progress is unavailable.")
		return
	}
	out := listResponse{Activities: make([]progressResponse, 0, len(rows))}
	for _, p := range rows {
		out.Activities = append(out.Activities, progressResponse{
			ActivityID: p.ActivityID,
			Percent:    p.Percent,
			Seconds:    p.Seconds,
			Completed:  p.Completed,
		})
	}
	apierrors.JSON(w, http.StatusOK, out)
}

func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Error(w, http.StatusUnauthorized, "Sign in to save progress.")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apierrors.Error(w, http.StatusUnauthorized, "Sign in to save progress.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func target(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, string, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	activityID := strings.TrimSpace(chi.URLParam(r, "activityID"))
	if activityID == "" || len(activityID) > 200 {
		apierrors.Error(w, http.StatusNotFound, "Unknown activity.")
		return primitive.NilObjectID, "", false
	}
	return userID, activityID, true
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
