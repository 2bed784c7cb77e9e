// Exhibition endpoints. Every handler first resolves the authenticated
// admin and every repository call is scoped by that admin, so a foreign
// exhibition id behaves exactly like a missing one (404).
package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/museumtech/exhibition-manager/internal/config"
	"github.com/museumtech/exhibition-manager/internal/queue"
	"github.com/museumtech/exhibition-manager/internal/repository"
	"github.com/museumtech/exhibition-manager/internal/service"
	"github.com/museumtech/exhibition-manager/internal/utils"
)

// ExhibitionHandler bundles the exhibition repository, the config needed
// to build visitor URLs and the publisher notified after mutations.
type ExhibitionHandler struct {
	Cfg         config.Config
	Exhibitions *repository.ExhibitionRepo
	Events      *service.ContentPublisher
}

func NewExhibitionHandler(cfg config.Config, e *repository.ExhibitionRepo, ev *service.ContentPublisher) *ExhibitionHandler {
	if e == nil || ev == nil {
		panic("nil dependency passed to NewExhibitionHandler")
	}
	return &ExhibitionHandler{Cfg: cfg, Exhibitions: e, Events: ev}
}

type exhibitionReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// Create handles POST /api/exhibitions.
func (h *ExhibitionHandler) Create(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	var body exhibitionReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if strings.TrimSpace(body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Title is required for the exhibition."})
	}
	e := &repository.Exhibition{
		AdminUserID: adminID,
		Title:       body.Title,
		Description: body.Description,
	}
	if err := h.Exhibitions.Create(c.Request().Context(), e); err != nil {
		log.Printf("create exhibition: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while creating exhibition."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventExhibitionCreated, adminID, e.ID, 0))
	return c.JSON(http.StatusCreated, e)
}

// List handles GET /api/exhibitions and returns the admin's exhibitions
// newest first.
func (h *ExhibitionHandler) List(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	items, err := h.Exhibitions.ListByOwner(c.Request().Context(), adminID)
	if err != nil {
		log.Printf("list exhibitions: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while fetching exhibitions."})
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/exhibitions/:id.
func (h *ExhibitionHandler) Get(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	e, err := h.Exhibitions.GetByIDAndOwner(c.Request().Context(), id, adminID)
	if err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied."})
		}
		log.Printf("get exhibition %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while fetching exhibition."})
	}
	return c.JSON(http.StatusOK, e)
}

// Update handles PUT /api/exhibitions/:id.
func (h *ExhibitionHandler) Update(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	var body exhibitionReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if strings.TrimSpace(body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Title cannot be empty."})
	}
	e, err := h.Exhibitions.UpdateByIDAndOwner(c.Request().Context(), id, adminID, body.Title, body.Description)
	if err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied for update."})
		}
		log.Printf("update exhibition %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while updating exhibition."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventExhibitionUpdated, adminID, id, 0))
	return c.JSON(http.StatusOK, e)
}

// Delete handles DELETE /api/exhibitions/:id. The repository removes the
// exhibition's stations in the same transaction.
func (h *ExhibitionHandler) Delete(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	e, err := h.Exhibitions.DeleteByIDAndOwner(c.Request().Context(), id, adminID)
	if err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied for deletion."})
		}
		log.Printf("delete exhibition %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while deleting exhibition."})
	}
	_ = h.Events.Publish(c.Request().Context(),
		service.NewContentEvent(queue.EventExhibitionDeleted, adminID, id, 0))
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Exhibition deleted successfully.",
		"exhibition": e,
	})
}

// QRCode handles GET /api/exhibitions/:id/qrcode. It builds the public
// visitor URL for the exhibition and returns it together with a PNG data
// URL of the QR code pointing at it.
func (h *ExhibitionHandler) QRCode(c echo.Context) error {
	adminID, err := getAdminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid exhibition id."})
	}
	e, err := h.Exhibitions.GetByIDAndOwner(c.Request().Context(), id, adminID)
	if err != nil {
		if err == repository.ErrExhibitionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Exhibition not found or access denied."})
		}
		log.Printf("qrcode exhibition %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error while generating QR code."})
	}

	visitorURL := fmt.Sprintf("%s/visitor/exhibition/%d", strings.TrimRight(h.Cfg.FrontendBaseURL, "/"), e.ID)
	dataURL, err := utils.QRCodeDataURL(visitorURL)
	if err != nil {
		log.Printf("qrcode encode %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to generate QR code."})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":         "QR code generated successfully.",
		"exhibitionId":    e.ID,
		"exhibitionTitle": e.Title,
		"visitorUrl":      visitorURL,
		"qrCodeDataUrl":   dataURL,
	})
}
