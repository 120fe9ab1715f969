package http

import (
	"errors"

	auctionapp "github.com/cortega/playerauction/internal/auction/application"
	auction "github.com/cortega/playerauction/internal/auction/domain"
	"github.com/cortega/playerauction/internal/roster/application"
	"github.com/cortega/playerauction/internal/roster/domain"
	"github.com/cortega/playerauction/internal/shared/logger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// RosterHandler serves the roster CRUD API plus the operator's auction
// controls (start, finalize, reset) over REST.
type RosterHandler struct {
	service     application.RosterService
	coordinator *auctionapp.Coordinator
	validate    *validator.Validate
}

func NewRosterHandler(service application.RosterService, coordinator *auctionapp.Coordinator, validate *validator.Validate) *RosterHandler {
	return &RosterHandler{
		service:     service,
		coordinator: coordinator,
		validate:    validate,
	}
}

func (h *RosterHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/players", h.listPlayers)
	api.Get("/players/:id", h.getPlayer)
	api.Delete("/players/:id", h.deletePlayer)
	api.Post("/players/import", h.importPlayers)

	api.Get("/teams", h.listTeams)
	api.Post("/teams", h.createTeam)
	api.Get("/teams/:id", h.getTeam)
	api.Put("/teams/:id", h.updateTeam)
	api.Delete("/teams/:id", h.deleteTeam)

	api.Post("/auction/start", h.startRound)
	api.Post("/auction/finalize", h.finalizeRound)
	api.Post("/auction/reset", h.resetAuction)
}

type createTeamRequest struct {
	Name       string   `json:"name" validate:"required"`
	TotalSlots int      `json:"totalSlots" validate:"required,min=1"`
	Budget     *float64 `json:"budget" validate:"omitempty,gt=0"`
}

type updateTeamRequest struct {
	Name       string   `json:"name" validate:"required"`
	TotalSlots int      `json:"totalSlots" validate:"required,min=1"`
	Budget     *float64 `json:"budget" validate:"omitempty,gt=0"`
}

type startRoundRequest struct {
	ItemID uuid.UUID `json:"itemId" validate:"required"`
}

type finalizeRequest struct {
	Reason     string `json:"reason" validate:"required,oneof=timeout manual-unsold manual-sold"`
	Assignment *struct {
		TeamID uuid.UUID `json:"teamId" validate:"required"`
		Amount float64   `json:"amount" validate:"required,gt=0"`
	} `json:"assignment"`
}

func (h *RosterHandler) listPlayers(c *fiber.Ctx) error {
	var status *domain.PlayerStatus
	if q := c.Query("status"); q != "" {
		s := domain.PlayerStatus(q)
		status = &s
	}
	players, err := h.service.ListPlayers(c.Context(), status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(players)
}

func (h *RosterHandler) getPlayer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid player id")
	}
	player, err := h.service.GetPlayer(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(player)
}

func (h *RosterHandler) deletePlayer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid player id")
	}
	if err := h.service.DeletePlayer(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RosterHandler) importPlayers(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing roster file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable roster file")
	}
	defer file.Close()

	report, err := h.service.ImportPlayers(c.Context(), file)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *RosterHandler) listTeams(c *fiber.Ctx) error {
	teams, err := h.service.ListTeams(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(teams)
}

func (h *RosterHandler) createTeam(c *fiber.Ctx) error {
	var req createTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid team payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	team, err := h.service.CreateTeam(c.Context(), application.CreateTeamInput{
		Name:       req.Name,
		TotalSlots: req.TotalSlots,
		Budget:     req.Budget,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(team)
}

func (h *RosterHandler) getTeam(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid team id")
	}
	team, err := h.service.GetTeam(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(team)
}

func (h *RosterHandler) updateTeam(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid team id")
	}
	var req updateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid team payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	team, err := h.service.GetTeam(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	team.Name = req.Name
	team.TotalSlots = req.TotalSlots
	team.Budget = req.Budget
	if err := h.service.UpdateTeam(c.Context(), team); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(team)
}

func (h *RosterHandler) deleteTeam(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid team id")
	}
	if err := h.service.DeleteTeam(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RosterHandler) startRound(c *fiber.Ctx) error {
	var req startRoundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid start payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.coordinator.StartRound(c.Context(), req.ItemID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *RosterHandler) finalizeRound(c *fiber.Ctx) error {
	var req finalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid finalize payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var assignment *auctionapp.Assignment
	if req.Assignment != nil {
		assignment = &auctionapp.Assignment{
			TeamID: req.Assignment.TeamID,
			Amount: req.Assignment.Amount,
		}
	}
	if err := h.coordinator.Finalize(c.Context(), auctionapp.FinalizeReason(req.Reason), assignment); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *RosterHandler) resetAuction(c *fiber.Ctx) error {
	if err := h.service.ResetAuction(c.Context()); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// fail maps domain errors onto HTTP statuses; anything unmapped is a 500.
func (h *RosterHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrTeamNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPlayerNotAvailable),
		errors.Is(err, domain.ErrTeamNameTaken),
		errors.Is(err, auction.ErrRoundInProgress),
		errors.Is(err, auction.ErrNoActiveRound):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrAssignmentRejected),
		errors.Is(err, auction.ErrAssignmentRequired),
		errors.Is(err, auction.ErrUnknownReason):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		log.Error("Unhandled roster API error", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
