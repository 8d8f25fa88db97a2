package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/crypto"
	"github.com/pscheid92/rumorpulse/internal/domain"
	apperrors "github.com/pscheid92/rumorpulse/internal/platform/errors"
)

func (s *Server) registerClaimRoutes(api *echo.Group) {
	api.POST("/claims", s.handleSubmitClaim)
	api.GET("/claims", s.handleListClaims)
	api.GET("/claims/:id", s.handleGetClaim)
	api.DELETE("/claims/:id", s.handleDeleteClaim)
	api.POST("/claims/:id/votes", s.handleSubmitVote)
	api.GET("/claims/:id/trust", s.handleTrustScore)
}

func (s *Server) handleSubmitClaim(c echo.Context) error {
	var req claimRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := crypto.DecodeSignature(req.Signature)
	if err != nil {
		return err
	}

	claim, err := s.app.SubmitClaim(c.Request().Context(), app.SubmitClaimInput{
		CreatorID: domain.IdentityID(req.CreatorID),
		Content:   req.Content,
		Category:  req.Category,
		Deadline:  req.Deadline,
		Signature: sig,
	})
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, newClaimResponse(claim)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListClaims(c echo.Context) error {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return apperrors.ValidationError("limit must be an integer")
	}

	claims, err := s.app.ListClaims(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	resp := make([]claimResponse, 0, len(claims))
	for i := range claims {
		resp = append(resp, newClaimResponse(&claims[i]))
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetClaim(c echo.Context) error {
	id, err := claimIDParam(c)
	if err != nil {
		return err
	}

	claim, err := s.app.GetClaim(c.Request().Context(), id)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, newClaimResponse(claim)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSubmitVote(c echo.Context) error {
	id, err := claimIDParam(c)
	if err != nil {
		return err
	}
	var req voteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := crypto.DecodeSignature(req.Signature)
	if err != nil {
		return err
	}

	vote, err := s.app.SubmitVote(c.Request().Context(), id, domain.IdentityID(req.VoterID), *req.Value, sig)
	if err != nil {
		return err
	}

	resp := voteResponse{ClaimID: vote.ClaimID, VoterID: vote.VoterID.String(), Value: vote.Value, VotedAt: vote.VotedAt}
	if err := c.JSON(http.StatusCreated, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleTrustScore serves the score of a claim. The optional identity query
// parameter names the requester; unfinalized scores require its vote.
func (s *Server) handleTrustScore(c echo.Context) error {
	id, err := claimIDParam(c)
	if err != nil {
		return err
	}

	var requester *domain.IdentityID
	if raw := c.QueryParam("identity"); raw != "" {
		r := domain.IdentityID(raw)
		requester = &r
	}

	ts, err := s.app.TrustScore(c.Request().Context(), id, requester)
	if err != nil {
		return err
	}

	resp := trustResponse{
		ClaimID:   ts.ClaimID,
		Score:     ts.Score,
		VoteCount: ts.VoteCount,
		Finalized: ts.Finalized,
		Outcome:   ts.Outcome,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteClaim(c echo.Context) error {
	id, err := claimIDParam(c)
	if err != nil {
		return err
	}
	var req deleteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sig, err := crypto.DecodeSignature(req.Signature)
	if err != nil {
		return err
	}

	affected, err := s.app.DeleteClaim(c.Request().Context(), id, domain.IdentityID(req.RequesterID), sig)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, deleteResponse{ClaimID: id, AffectedVoters: affected}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func claimIDParam(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid claim ID").WithField("id", raw)
	}
	return id, nil
}

func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.ValidationError("malformed request body")
	}
	return c.Validate(dst)
}
