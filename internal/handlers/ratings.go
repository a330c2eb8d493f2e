package handlers

import (
	"errors"
	"time"

	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/app"
	"github.com/ZidanAK22/RateYourGroupMates/internal/metrics"
	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
)

type RatingHandler struct {
	service *app.Service
}

func NewRatingHandler(service *app.Service) *RatingHandler {
	return &RatingHandler{
		service: service,
	}
}

func (h *RatingHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// HandleListClasses serves the root option list of the cascading form.
func (h *RatingHandler) HandleListClasses(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	classes, err := h.service.Store.ListClasses()
	if err != nil {
		logger.Error.Printf("Failed to list classes: %v", err)
		metrics.OptionFetchesTotal.WithLabelValues("classes", "error").Inc()
		http.Error(w, "Failed to fetch classes", http.StatusInternalServerError)
		return
	}
	metrics.OptionFetchesTotal.WithLabelValues("classes", "ok").Inc()

	h.writeJSON(w, map[string]interface{}{
		"rows": classes,
	})
}

// HandleListGroups serves the groups of one class, the second selector
// level.
func (h *RatingHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	classID := r.PathValue("class")
	if classID == "" {
		logger.Error.Printf("Failed to extract class from path: %s", r.URL.Path)
		http.Error(w, "Invalid class", http.StatusBadRequest)
		return
	}

	groups, err := h.service.Store.ListGroups(classID)
	if err != nil {
		logger.Error.Printf("Failed to list groups for class %s: %v", classID, err)
		metrics.OptionFetchesTotal.WithLabelValues("groups", "error").Inc()
		http.Error(w, "Failed to fetch groups", http.StatusInternalServerError)
		return
	}
	metrics.OptionFetchesTotal.WithLabelValues("groups", "ok").Inc()

	h.writeJSON(w, map[string]interface{}{
		"rows": groups,
	})
}

func (h *RatingHandler) HandleListParticipants(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	groupID := r.PathValue("group")
	if groupID == "" {
		logger.Error.Printf("Failed to extract group from path: %s", r.URL.Path)
		http.Error(w, "Invalid group", http.StatusBadRequest)
		return
	}

	participants, err := h.service.Store.ListParticipants(groupID)
	if err != nil {
		logger.Error.Printf("Failed to list participants for group %s: %v", groupID, err)
		metrics.OptionFetchesTotal.WithLabelValues("participants", "error").Inc()
		http.Error(w, "Failed to fetch participants", http.StatusInternalServerError)
		return
	}
	metrics.OptionFetchesTotal.WithLabelValues("participants", "ok").Inc()

	h.writeJSON(w, map[string]interface{}{
		"rows": participants,
	})
}

// HandleSubmitRating is the submission writer: validate the assembled form
// state, insert exactly one rating row.
func (h *RatingHandler) HandleSubmitRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var input models.RatingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateAuthAndParticipant(r, input.RaterID); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rating, err := h.service.SubmitRating(input)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			h.writeError(w, http.StatusBadRequest, vErr.Field, vErr.Error())
			return
		}
		logger.Error.Printf("Failed to save rating: %v", err)
		http.Error(w, "Failed to save rating", http.StatusInternalServerError)
		return
	}

	metrics.RatingsTotal.WithLabelValues(input.ClassID, input.GroupID).Inc()
	metrics.RatingScoreHistogram.WithLabelValues(input.ClassID, input.GroupID).Observe(float64(input.Score))

	h.writeJSON(w, map[string]interface{}{
		"rating_id":  rating.RatingID,
		"created_at": rating.CreatedAt,
	})
}

func (h *RatingHandler) writeError(w http.ResponseWriter, status int, field, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"field": field,
		"error": msg,
	})
}

// HandleRecap serves the deduplicated latest-rating-per-pair table.
func (h *RatingHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	rows, err := h.service.Recap()
	if err != nil {
		logger.Error.Printf("Failed to build recap: %v", err)
		http.Error(w, "Failed to fetch recap", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"rows": rows,
	})
}

// HandleMe resolves the signed-in participant, the getCurrentUser
// collaborator of the form and recap views.
func (h *RatingHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	participant, err := h.service.CurrentParticipant(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if participant == nil {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return
	}

	h.writeJSON(w, participant)
}

// HandleSignOut revokes the caller's token. Credential checking itself
// lives outside this system; all we own is the session record.
func (h *RatingHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	nrp := r.Header.Get(h.service.Config.API.ParticipantIDHeader)
	if nrp == "" {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return
	}

	if err := h.service.ValidateAuthAndParticipant(r, nrp); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Auth.Revoke(r.Context(), nrp); err != nil {
		logger.Error.Printf("Failed to revoke token for %s: %v", nrp, err)
		http.Error(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
