package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/rumorpulse/internal/crypto"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/reputation"
)

func (s *Server) registerIdentityRoutes(api *echo.Group) {
	api.POST("/identities", s.handleRegisterIdentity)
	api.GET("/identities/:id/reputation", s.handleReputation)
}

func (s *Server) handleRegisterIdentity(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := crypto.DecodeSignature(req.Signature)
	if err != nil {
		return err
	}

	identity, err := s.app.RegisterIdentity(c.Request().Context(), req.PublicKey, sig)
	if err != nil {
		return err
	}

	resp := identityResponse{ID: identity.ID.String(), CreatedAt: identity.CreatedAt}
	if err := c.JSON(http.StatusCreated, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleReputation(c echo.Context) error {
	id := domain.IdentityID(c.Param("id"))
	rep, err := s.app.Reputation(c.Request().Context(), id)
	if err != nil {
		return err
	}

	resp := reputationResponse{IdentityID: id.String(), Reputation: rep, Weight: reputation.Weight(rep)}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
