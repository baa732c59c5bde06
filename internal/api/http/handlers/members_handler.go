package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickerbell/ticket-service/internal/api/dto"
	"github.com/tickerbell/ticket-service/internal/auth"
	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/service"
	apperrors "github.com/tickerbell/ticket-service/pkg/util/errorutil"
)

// MembersHandler exposes member registration and profile endpoints.
type MembersHandler struct {
	members *service.MemberService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(memberService *service.MemberService) *MembersHandler {
	return &MembersHandler{members: memberService}
}

// Join handles POST /api/members/join.
func (h *MembersHandler) Join(c *fiber.Ctx) error {
	var req dto.JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	member, err := h.members.Join(c.UserContext(), service.JoinInput{
		Username: req.Username,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(toMemberResponse(member))
}

// Me handles GET /api/members/me.
func (h *MembersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromFiber(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	member, err := h.members.Me(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(toMemberResponse(member))
}

func toMemberResponse(member *domain.Member) dto.MemberResponse {
	resp := dto.MemberResponse{
		ID:       member.ID,
		Username: member.Username,
		Role:     string(member.Role),
	}
	if !member.CreatedAt.IsZero() {
		created := member.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
