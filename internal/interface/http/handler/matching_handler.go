package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/matching"
)

type MatchingHandler struct {
	findMatchesUC *matching.FindMatchesUseCase
	findTravelsUC *matching.FindTravelsUseCase
	autoMatchUC   *matching.AutoMatchUseCase
}

func NewMatchingHandler(
	findMatchesUC *matching.FindMatchesUseCase,
	findTravelsUC *matching.FindTravelsUseCase,
	autoMatchUC *matching.AutoMatchUseCase,
) *MatchingHandler {
	return &MatchingHandler{
		findMatchesUC: findMatchesUC,
		findTravelsUC: findTravelsUC,
		autoMatchUC:   autoMatchUC,
	}
}

func criteriaFromQuery(c *gin.Context) (matching.Criteria, bool) {
	criteria := matching.Criteria{
		MaxFee:           parseFloatQuery(c, "maxFee"),
		MinRating:        parseFloatQuery(c, "minRating"),
		DepartureCountry: c.Query("departureCountry"),
		ArrivalCountry:   c.Query("arrivalCountry"),
		Limit:            parseIntQuery(c, "limit", 0),
	}
	if s := c.Query("travelMode"); s != "" {
		mode, err := valueobject.NewTravelMode(s)
		if err != nil {
			response.Error(c, err)
			return matching.Criteria{}, false
		}
		criteria.TravelMode = &mode
	}
	return criteria, true
}

// Find с parcelId подбирает и ранжирует поездки под посылку, без него
// ищет открытые поездки по маршруту и вместимости.
func (h *MatchingHandler) Find(c *gin.Context) {
	parcelID, ok := parseUUIDQuery(c, "parcelId")
	if !ok {
		return
	}
	if parcelID == nil {
		h.findTravels(c)
		return
	}

	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}
	candidates, err := h.findMatchesUC.Execute(c.Request.Context(), *parcelID, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCandidateResponses(candidates))
}

func (h *MatchingHandler) findTravels(c *gin.Context) {
	page, limit := pageParams(c)
	criteria := matching.TravelCriteria{
		DepartureCity:    c.Query("departureCity"),
		DepartureCountry: c.Query("departureCountry"),
		ArrivalCity:      c.Query("arrivalCity"),
		ArrivalCountry:   c.Query("arrivalCountry"),
		MaxFee:           parseFloatQuery(c, "maxFee"),
		DeliveryDeadline: parseTimeQuery(c, "deliveryDeadline"),
		Page:             page,
		Limit:            limit,
	}
	if v := parseFloatQuery(c, "weight"); v != nil {
		criteria.Weight = *v
	}
	if v := parseFloatQuery(c, "volume"); v != nil {
		criteria.Volume = *v
	}
	if s := c.Query("travelMode"); s != "" {
		mode, err := valueobject.NewTravelMode(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		criteria.TravelMode = &mode
	}

	listings, total, err := h.findTravelsUC.Execute(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToTravelListingResponses(listings), total, page, limit)
}

// Suggest кандидаты автоподбора без создания матчей.
func (h *MatchingHandler) Suggest(c *gin.Context) {
	parcelID, ok := parseUUIDQuery(c, "parcelId")
	if !ok {
		return
	}
	if parcelID == nil {
		response.BadRequest(c, "parcelId обязателен")
		return
	}
	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}

	candidates, err := h.autoMatchUC.Suggest(c.Request.Context(), *parcelID, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCandidateResponses(candidates))
}

// Propose создаёт предложения всем подходящим кандидатам.
func (h *MatchingHandler) Propose(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	var req dto.AutoMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "parcel_id обязателен")
		return
	}
	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}

	matches, err := h.autoMatchUC.Propose(c.Request.Context(), userID, req.ParcelID, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToMatchResponses(matches))
}
