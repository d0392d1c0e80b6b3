package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/repositories"
	"github.com/HSouheill/ladli_lakshmi_backend/services"
	"github.com/HSouheill/ladli_lakshmi_backend/utils"
)

const referralQRCodeSize = 300

// TeamReader serves the referral matrix of a member
type TeamReader interface {
	ReferralCode(ctx context.Context, memberID string) (string, error)
	MemberMatrix(ctx context.Context, memberID string) (*models.MatrixResponse, error)
	DescendantCount(ctx context.Context, memberID string) (int, error)
}

type TeamController struct {
	team        TeamReader
	frontendURL string
}

func NewTeamController(team TeamReader, frontendURL string) *TeamController {
	return &TeamController{team: team, frontendURL: frontendURL}
}

// GetMyMatrix returns the matrix rooted at the authenticated member
func (tc *TeamController) GetMyMatrix(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	return tc.renderMatrix(c, userID)
}

// GetMemberMatrix lets admins inspect any member's matrix
func (tc *TeamController) GetMemberMatrix(c echo.Context) error {
	memberID := c.Param("memberId")
	if memberID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Member ID is required",
		})
	}
	return tc.renderMatrix(c, memberID)
}

func (tc *TeamController) renderMatrix(c echo.Context, memberID string) error {
	resp, err := tc.team.MemberMatrix(c.Request().Context(), memberID)
	if err != nil {
		return teamError(c, memberID, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Team matrix retrieved successfully",
		Data:    resp,
	})
}

// GetMyDescendantCount returns only the size of the caller's downline
func (tc *TeamController) GetMyDescendantCount(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	count, err := tc.team.DescendantCount(c.Request().Context(), userID)
	if err != nil {
		return teamError(c, userID, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Team size retrieved successfully",
		Data:    map[string]int{"descendants": count},
	})
}

// GetReferralQRCode returns a PNG QR code of the member's registration link,
// assigning a referral code first if needed. ?format=base64 answers with a
// data URI instead.
func (tc *TeamController) GetReferralQRCode(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	code, err := tc.team.ReferralCode(c.Request().Context(), userID)
	if err != nil {
		return teamError(c, userID, err)
	}
	link := tc.frontendURL + "/register?ref=" + url.QueryEscape(code)

	if c.QueryParam("format") == "base64" {
		uri, err := utils.QRCodeDataURI(link, referralQRCodeSize)
		if err != nil {
			return qrError(c, err)
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Referral QR code generated successfully",
			Data: map[string]string{
				"referralCode": code,
				"link":         link,
				"qrCode":       uri,
			},
		})
	}

	png, err := utils.GenerateQRCodePNG(link, referralQRCodeSize)
	if err != nil {
		return qrError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func teamError(c echo.Context, memberID string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrMemberNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Member not found",
		})
	case errors.Is(err, services.ErrMatrixTooDeep), errors.Is(err, services.ErrMatrixCycle):
		zap.L().Error("team data is malformed", zap.String("memberId", memberID), zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: "Team structure could not be rendered",
		})
	default:
		zap.L().Error("failed to load team", zap.String("memberId", memberID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load team",
		})
	}
}

func qrError(c echo.Context, err error) error {
	zap.L().Error("failed to generate QR code", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to generate QR code",
	})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: "Authentication failed",
	})
}
