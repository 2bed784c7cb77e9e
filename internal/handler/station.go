// Station endpoints. Stations hang off an exhibition, so creation and
// listing are nested under /api/exhibitions/:id/stations with a parent
// ownership precheck, while the by-id routes resolve ownership through a
// join. Per the published interface, GET by id distinguishes a missing
// station (404) from a foreign one (403); the update/delete paths collapse
// both cases to 403.
package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/museumtech/exhibition-manager/internal/queue"
	"github.com/museumtech/exhibition-manager/internal/repository"
	"github.com/museumtech/exhibition-manager/internal/service"
)

// StationHandler bundles the repositories stations need, the exhibition
// repo for parent ownership checks, and the mutation publisher.
type StationHandler struct {
	Exhibitions *repository.ExhibitionRepo
	Stations    *repository.StationRepo
	Events      *service.ContentPublisher
}

func NewStationHandler(e *repository.ExhibitionRepo, s *repository.StationRepo, ev *service.ContentPublisher) *StationHandler {
	if e == nil || s == nil || ev == nil {
		panic("nil dependency passed to NewStationHandler")
	}
	return &StationHandler{Exhibitions: e, Stations: s, Events: ev}
}

type stationReq struct {
	Title string          `json:"title"`
	Texts json.RawMessage `json:"texts"`
}

// validateStationBody checks title and texts before anything touches the
// database. Texts must be a JSON object with at least one entry and only
// string values; the raw message is inspected so a non-string value
// yields a precise message instead of a generic bind failure.
func validateStationBody(body stationReq) (map[string]string, string) {
	if strings.TrimSpace(body.Title) == "" || len(body.Texts) == 0 {
		return nil, "Title and texts (as a non-empty JSON object) are required."
	}
	var rawTexts map[string]json.RawMessage
	if err := json.Unmarshal(body.Texts, &rawTexts); err != nil || len(rawTexts) == 0 {
		return nil, "Title and texts (as a non-empty JSON object) are required."
	}
	texts := make(map[string]string, len(rawTexts))
	for lang, raw := range rawTexts {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Sprintf("Text for language '%s' must be a string.", lang)
		}
		texts[lang] = v
	}
	return texts, ""
}

// Create handles POST /api/exhibitions/:id/stations.
func (h *StationHandler) Create(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	exhibitionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	var body stationReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	texts, msg := validateStationBody(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	// Parent gate: a missing or foreign exhibition reads as 404.
	if _, err := h.Exhibitions.GetByIDAndOwner(c.Request().Context(), exhibitionID, adminID); err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied."})
		}
		log.Printf("create station: exhibition check %d: %v", exhibitionID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while creating station."})
	}

	s := &repository.Station{
		ExhibitionID: exhibitionID,
		Title:        body.Title,
		Texts:        texts,
	}
	if err := h.Stations.Create(c.Request().Context(), s); err != nil {
		log.Printf("create station: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while creating station."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventStationCreated, adminID, exhibitionID, s.ID))
	return c.JSON(http.StatusCreated, s)
}

// ListByExhibition handles GET /api/exhibitions/:id/stations.
func (h *StationHandler) ListByExhibition(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	exhibitionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	if _, err := h.Exhibitions.GetByIDAndOwner(c.Request().Context(), exhibitionID, adminID); err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied."})
		}
		log.Printf("list stations: exhibition check %d: %v", exhibitionID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while fetching stations."})
	}
	items, err := h.Stations.ListByExhibition(c.Request().Context(), exhibitionID)
	if err != nil {
		log.Printf("list stations %d: %v", exhibitionID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while fetching stations."})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/stations/:id.
func (h *StationHandler) Get(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid station id."})
	}
	s, ownerID, err := h.Stations.GetWithOwner(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrStationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Station not found."})
		}
		log.Printf("get station %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while fetching station."})
	}
	if ownerID != adminID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied to this station."})
	}
	return c.JSON(http.StatusOK, s) // owner fields are not part of the Station struct
}

// Update handles PUT /api/stations/:id.
func (h *StationHandler) Update(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid station id."})
	}
	var body stationReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	texts, msg := validateStationBody(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	owned, err := h.Stations.OwnedBy(c.Request().Context(), id, adminID)
	if err != nil {
		log.Printf("update station: ownership check %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while updating station."})
	}
	if !owned {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied or station not found for update."})
	}

	s, err := h.Stations.Update(c.Request().Context(), id, body.Title, texts)
	if err != nil {
		if err == repository.ErrStationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Station not found after update attempt."})
		}
		log.Printf("update station %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while updating station."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventStationUpdated, adminID, s.ExhibitionID, s.ID))
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /api/stations/:id.
func (h *StationHandler) Delete(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid station id."})
	}

	owned, err := h.Stations.OwnedBy(c.Request().Context(), id, adminID)
	if err != nil {
		log.Printf("delete station: ownership check %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while deleting station."})
	}
	if !owned {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied or station not found for deletion."})
	}

	s, err := h.Stations.Delete(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrStationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Station not found for deletion (already deleted or wrong ID)."})
		}
		log.Printf("delete station %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while deleting station."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventStationDeleted, adminID, s.ExhibitionID, s.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Station deleted successfully.",
		"station": s,
	})
}
