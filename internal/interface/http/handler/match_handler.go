package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/repository"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/match"
)

const idempotencyHeader = "Idempotency-Key"

// MatchUseCases сценарии жизненного цикла матча.
type MatchUseCases struct {
	Create         *match.CreateMatchUseCase
	Get            *match.GetMatchUseCase
	List           *match.ListMatchesUseCase
	Negotiate      *match.NegotiateMatchUseCase
	GetNegotiation *match.GetNegotiationUseCase
	Accept         *match.AcceptMatchUseCase
	Reject         *match.RejectMatchUseCase
	Cancel         *match.CancelMatchUseCase
}

type MatchHandler struct {
	uc MatchUseCases
}

func NewMatchHandler(uc MatchUseCases) *MatchHandler {
	return &MatchHandler{uc: uc}
}

// CreateMatch повтор с тем же Idempotency-Key возвращает ранее созданный матч.
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.uc.Create.Execute(c.Request.Context(), match.CreateMatchInput{
		ActorID:        userID,
		ParcelID:       req.ParcelID,
		TravelID:       req.TravelID,
		SenderID:       req.SenderID,
		CarrierID:      req.CarrierID,
		InitialFee:     req.InitialFee,
		Currency:       req.Currency,
		Agreement:      req.Agreement.ToAgreement(),
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ToMatchResponse(result.Match)
	resp.Details = result.Details
	if result.Replayed {
		response.Success(c, resp)
		return
	}
	response.Created(c, resp)
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id", "матча")
	if !ok {
		return
	}

	m, err := h.uc.Get.Execute(c.Request.Context(), matchID, userID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMatchResponse(m))
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	filter := repository.MatchFilter{
		MinScore: parseFloatQuery(c, "minScore"),
		MaxFee:   parseFloatQuery(c, "maxFee"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if filter.ParcelID, ok = parseUUIDQuery(c, "parcelId"); !ok {
		return
	}
	if filter.TravelID, ok = parseUUIDQuery(c, "travelId"); !ok {
		return
	}
	if filter.SenderID, ok = parseUUIDQuery(c, "senderId"); !ok {
		return
	}
	if filter.CarrierID, ok = parseUUIDQuery(c, "carrierId"); !ok {
		return
	}
	if s := c.Query("status"); s != "" {
		status, err := valueobject.NewMatchStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = &status
	}

	matches, total, err := h.uc.List.Execute(c.Request.Context(), match.ListMatchesInput{
		Filter:  filter,
		ActorID: userID,
		IsAdmin: isAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToMatchResponses(matches), total, page, limit)
}

func (h *MatchHandler) Negotiate(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id", "матча")
	if !ok {
		return
	}
	var req dto.NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	m, err := h.uc.Negotiate.Execute(c.Request.Context(), match.NegotiateInput{
		MatchID: matchID,
		ActorID: userID,
		Fee:     req.Fee,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMatchResponse(m))
}

func (h *MatchHandler) GetNegotiation(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id", "матча")
	if !ok {
		return
	}

	n, err := h.uc.GetNegotiation.Execute(c.Request.Context(), matchID, userID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNegotiationResponse(*n))
}

func (h *MatchHandler) Accept(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id", "матча")
	if !ok {
		return
	}
	var req dto.AcceptMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	result, err := h.uc.Accept.Execute(c.Request.Context(), match.AcceptMatchInput{
		MatchID:   matchID,
		ActorID:   userID,
		FinalFee:  req.FinalFee,
		Agreement: req.Agreement.ToAgreement(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.AcceptMatchResponse{
		Match:  dto.ToMatchResponse(result.Match),
		Parcel: dto.ToParcelResponse(result.Parcel),
	}
	if result.Payment != nil {
		payment := dto.ToPaymentResponse(result.Payment)
		resp.Payment = &payment
	}
	response.Success(c, resp)
}

func (h *MatchHandler) Reject(c *gin.Context) {
	h.close(c, h.uc.Reject.Execute)
}

func (h *MatchHandler) Cancel(c *gin.Context) {
	h.close(c, h.uc.Cancel.Execute)
}

func (h *MatchHandler) close(c *gin.Context, op closeOp) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	matchID, ok := pathID(c, "id", "матча")
	if !ok {
		return
	}
	var req dto.CloseMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	m, err := op(c.Request.Context(), match.CloseMatchInput{
		MatchID: matchID,
		ActorID: userID,
		IsAdmin: isAdmin,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMatchResponse(m))
}

type closeOp func(context.Context, match.CloseMatchInput) (*entity.Match, error)
