package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/parcel"
)

const photoField = "photo"

type ParcelHandler struct {
	createUC   *parcel.CreateParcelUseCase
	getUC      *parcel.GetParcelUseCase
	listUC     *parcel.ListParcelsUseCase
	statusUC   *parcel.StatusUseCases
	trackingUC *parcel.AddTrackingEventUseCase
	photoUC    *parcel.UploadPhotoUseCase
}

func NewParcelHandler(
	createUC *parcel.CreateParcelUseCase,
	getUC *parcel.GetParcelUseCase,
	listUC *parcel.ListParcelsUseCase,
	statusUC *parcel.StatusUseCases,
	trackingUC *parcel.AddTrackingEventUseCase,
	photoUC *parcel.UploadPhotoUseCase,
) *ParcelHandler {
	return &ParcelHandler{
		createUC:   createUC,
		getUC:      getUC,
		listUC:     listUC,
		statusUC:   statusUC,
		trackingUC: trackingUC,
		photoUC:    photoUC,
	}
}

func (h *ParcelHandler) CreateParcel(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req dto.CreateParcelRequest
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

	response.Created(c, dto.ToParcelResponse(created))
}

func (h *ParcelHandler) GetParcel(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	parcelID, ok := pathID(c, "id", "посылки")
	if !ok {
		return
	}

	p, err := h.getUC.Execute(c.Request.Context(), parcelID, userID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToParcelResponse(p))
}

// ListParcels по умолчанию посылки отправителя; role=carrier показывает
// посылки, которые везёт пользователь.
func (h *ParcelHandler) ListParcels(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	input := parcel.ListParcelsInput{
		ActorID:   userID,
		IsAdmin:   isAdmin,
		AsCarrier: c.Query("role") == string(valueobject.RoleCarrier),
		Page:      page,
		Limit:     limit,
	}
	if s := c.Query("status"); s != "" {
		status, err := valueobject.NewParcelStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Status = &status
	}
	if s := c.Query("category"); s != "" {
		category, err := valueobject.NewParcelCategory(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Category = &category
	}

	parcels, total, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToParcelResponses(parcels), total, page, limit)
}

func (h *ParcelHandler) CancelParcel(c *gin.Context) {
	h.changeStatus(c, h.statusUC.Cancel)
}

func (h *ParcelHandler) PickUpParcel(c *gin.Context) {
	h.changeStatus(c, h.statusUC.PickUp)
}

func (h *ParcelHandler) DeliverParcel(c *gin.Context) {
	h.changeStatus(c, h.statusUC.Deliver)
}

func (h *ParcelHandler) MarkParcelLost(c *gin.Context) {
	h.changeStatus(c, h.statusUC.MarkLost)
}

func (h *ParcelHandler) changeStatus(c *gin.Context, op func(context.Context, parcel.StatusInput) (*entity.Parcel, error)) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	parcelID, ok := pathID(c, "id", "посылки")
	if !ok {
		return
	}

	// тело необязательно
	var req dto.StatusChangeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	p, err := op(c.Request.Context(), parcel.StatusInput{
		ParcelID:    parcelID,
		ActorID:     userID,
		IsAdmin:     isAdmin,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToParcelResponse(p))
}

// AddTrackingEvent принимает JSON или multipart с необязательным фото.
func (h *ParcelHandler) AddTrackingEvent(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	parcelID, ok := pathID(c, "id", "посылки")
	if !ok {
		return
	}

	var req dto.TrackingEventRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	event, err := valueobject.NewTrackingEventType(req.Event)
	if err != nil {
		response.Error(c, err)
		return
	}

	input := parcel.AddTrackingEventInput{
		ParcelID:    parcelID,
		ActorID:     userID,
		Event:       event,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if fh, err := c.FormFile(photoField); err == nil {
			file, err := fh.Open()
			if err != nil {
				response.BadRequest(c, "не удалось прочитать файл")
				return
			}
			defer file.Close()
			input.Photo = &parcel.Upload{Reader: file, Size: fh.Size}
		}
	}

	ev, err := h.trackingUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTrackingEventResponse(*ev))
}

// UploadPhoto multipart поле photo, изображения jpeg/png/gif/webp.
func (h *ParcelHandler) UploadPhoto(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	parcelID, ok := pathID(c, "id", "посылки")
	if !ok {
		return
	}

	fh, err := c.FormFile(photoField)
	if err != nil {
		response.BadRequest(c, "файл photo обязателен")
		return
	}
	file, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	url, err := h.photoUC.Execute(c.Request.Context(), parcelID, userID, parcel.Upload{Reader: file, Size: fh.Size})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"parcel_id": parcelID, "url": url})
}

