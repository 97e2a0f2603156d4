package handler

import (
	"context"
	"errors"
	"net/url"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/middleware"
	"starmatch/internal/service"
	"starmatch/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const handoffParam = "h"

// sessionOf returns the session attached by middleware.Sessions.
func sessionOf(c *fiber.Ctx) (*session.Session, error) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return nil, domain.NewInternalError("request has no session", nil)
	}
	return sess, nil
}

// takeHandoff resolves token lazily; an unknown, expired or consumed token
// yields the zero handoff.
func takeHandoff(ctx context.Context, store service.HandoffStore, token string) func() domain.Handoff {
	return func() domain.Handoff {
		if token == "" {
			return domain.Handoff{}
		}
		h, err := store.Take(ctx, token)
		if err != nil {
			if !errors.Is(err, service.ErrHandoffNotFound) {
				logger.Get().Error("Failed to take handoff", zap.Error(err))
			}
			return domain.Handoff{}
		}
		return h
	}
}

func withHandoff(path, token string) string {
	if token == "" {
		return path
	}
	return path + "?" + url.Values{handoffParam: {token}}.Encode()
}

func redirect(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

// formValues returns every value posted under key, for urlencoded and
// multipart bodies alike.
func formValues(c *fiber.Ctx, key string) []string {
	if form, err := c.MultipartForm(); err == nil && form != nil {
		return form.Value[key]
	}
	var out []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}
