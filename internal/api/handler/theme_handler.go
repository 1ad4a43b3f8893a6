package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/api/middleware"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

const themeHeartbeat = 25 * time.Second

// ThemeHandler is the consumer side of the theme side-channel: it reads the
// stored snapshot and relays update signals to the browser.
type ThemeHandler struct {
	storage ports.StorageBackend
	themes  ports.ThemeBroadcaster
	log     zerolog.Logger
}

func NewThemeHandler(storage ports.StorageBackend, themes ports.ThemeBroadcaster, log zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{storage: storage, themes: themes, log: log}
}

// Current returns the stored business theme, or the default palette.
//
// @Summary      Current theme
// @Tags         theme
// @Produce      json
// @Success      200  {object}  domain.ThemeSnapshot
// @Router       /theme [get]
func (h *ThemeHandler) Current(c echo.Context) error {
	theme, err := h.current(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, theme)
}

func (h *ThemeHandler) current(c echo.Context) (domain.ThemeSnapshot, error) {
	raw, ok, err := h.storage.Scope(middleware.SessionID(c)).Get(c.Request().Context(), domain.KeyBusinessTheme)
	if err != nil {
		return domain.ThemeSnapshot{}, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return domain.DefaultTheme, nil
	}

	var theme domain.ThemeSnapshot
	if err := json.Unmarshal([]byte(raw), &theme); err != nil || theme.PrimaryColor == "" {
		h.log.Warn().Err(err).Str("session_id", middleware.SessionID(c)).Msg("stored theme unreadable, serving default")
		return domain.DefaultTheme, nil
	}
	return theme, nil
}

// Events streams a server-sent event for every theme updated signal. The
// event carries no payload; clients re-read GET /theme.
//
// @Summary      Theme update stream
// @Tags         theme
// @Produce      text/event-stream
// @Success      200
// @Router       /theme/events [get]
func (h *ThemeHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()
	signals, cancel := h.themes.Subscribe(ctx, middleware.SessionID(c))
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	heartbeat := time.NewTicker(themeHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: {}\n\n", domain.ThemeUpdatedSignal); err != nil {
				return nil
			}
			res.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
