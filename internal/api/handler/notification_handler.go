package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/todo-service/internal/core/realtime"
)

const streamHeartbeat = 25 * time.Second

// NotificationHandler exposes the caller's in-memory notification set and
// its live stream.
type NotificationHandler struct {
	heartbeat time.Duration
}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{heartbeat: streamHeartbeat}
}

// List handles GET /v1/notifications.
//
// @Summary      Current notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  realtime.Snapshot
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Notifications.Snapshot())
}

// Unread handles GET /v1/notifications/unread.
//
// @Summary      Unread count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  unreadResponse
// @Router       /v1/notifications/unread [get]
func (h *NotificationHandler) Unread(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unreadResponse{Unread: s.Notifications.UnreadCount()})
}

// Refresh handles POST /v1/notifications/refresh.
//
// @Summary      Re-derive notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  realtime.Snapshot
// @Failure      500  {object}  errorResponse
// @Router       /v1/notifications/refresh [post]
func (h *NotificationHandler) Refresh(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := s.Notifications.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Notifications.Snapshot())
}

// MarkRead handles POST /v1/notifications/:id/read. Unknown ids are a no-op.
//
// @Summary      Mark one notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  realtime.Snapshot
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	s.Notifications.MarkAsRead(c.Param("id"))
	return c.JSON(http.StatusOK, s.Notifications.Snapshot())
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  realtime.Snapshot
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	s.Notifications.MarkAllAsRead()
	return c.JSON(http.StatusOK, s.Notifications.Snapshot())
}

// OpenDrawer handles POST /v1/notifications/drawer. Opening the drawer reads
// everything in it.
//
// @Summary      Open the notification drawer
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  realtime.Snapshot
// @Router       /v1/notifications/drawer [post]
func (h *NotificationHandler) OpenDrawer(c echo.Context) error {
	return h.MarkAllRead(c)
}

// Clear handles DELETE /v1/notifications.
//
// @Summary      Clear all notifications
// @Tags         notifications
// @Security     BearerAuth
// @Success      204
// @Router       /v1/notifications [delete]
func (h *NotificationHandler) Clear(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	s.Notifications.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/notifications/stream as server-sent events. The
// first event is the current notification snapshot; toasts and later
// snapshots follow as they happen. The stream ends with the session.
//
// @Summary      Live toasts and notification updates
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Router       /v1/notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	s, err := ctxSession(c)
	if err != nil {
		return err
	}
	msgs, release := s.Hub.Subscribe()
	defer release()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	snap := s.Notifications.Snapshot()
	if err := writeEvent(res, realtime.Message{Kind: realtime.MessageNotifications, Notifications: &snap}); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := writeEvent(res, m); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, m realtime.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", m.Kind, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
