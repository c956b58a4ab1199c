package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/travel"
)

type TravelHandler struct {
	createUC *travel.CreateTravelUseCase
	getUC    *travel.GetTravelUseCase
	listUC   *travel.ListTravelsUseCase
	statusUC *travel.UpdateTravelStatusUseCase
}

func NewTravelHandler(
	createUC *travel.CreateTravelUseCase,
	getUC *travel.GetTravelUseCase,
	listUC *travel.ListTravelsUseCase,
	statusUC *travel.UpdateTravelStatusUseCase,
) *TravelHandler {
	return &TravelHandler{
		createUC: createUC,
		getUC:    getUC,
		listUC:   listUC,
		statusUC: statusUC,
	}
}

func (h *TravelHandler) CreateTravel(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateTravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	params, err := req.ToParams(userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTravelResponse(created))
}

func (h *TravelHandler) GetTravel(c *gin.Context) {
	travelID, ok := pathID(c, "id", "поездки")
	if !ok {
		return
	}

	t, err := h.getUC.Execute(c.Request.Context(), travelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTravelResponse(t))
}

// ListTravels mine=true оставляет только поездки текущего перевозчика.
func (h *TravelHandler) ListTravels(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	input := travel.ListTravelsInput{
		DepartureCity:    c.Query("departureCity"),
		DepartureCountry: c.Query("departureCountry"),
		ArrivalCity:      c.Query("arrivalCity"),
		ArrivalCountry:   c.Query("arrivalCountry"),
		MaxFee:           parseFloatQuery(c, "maxFee"),
		DepartureFrom:    parseTimeQuery(c, "departureFrom"),
		ArrivalBy:        parseTimeQuery(c, "arrivalBy"),
		Page:             page,
		Limit:            limit,
	}
	if c.Query("mine") == "true" {
		input.CarrierID = &userID
	}
	if v := parseFloatQuery(c, "minCapacity"); v != nil {
		input.MinCapacity = *v
	}
	if s := c.Query("status"); s != "" {
		status, err := valueobject.NewTravelStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Status = &status
	}
	if s := c.Query("travelMode"); s != "" {
		mode, err := valueobject.NewTravelMode(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.TravelMode = &mode
	}

	travels, total, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToTravelResponses(travels), total, page, limit)
}

func (h *TravelHandler) UpdateTravelStatus(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	travelID, ok := pathID(c, "id", "поездки")
	if !ok {
		return
	}

	var req dto.UpdateTravelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status обязателен")
		return
	}
	status, err := valueobject.NewTravelStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	t, err := h.statusUC.Execute(c.Request.Context(), travelID, userID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTravelResponse(t))
}
