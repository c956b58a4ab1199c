package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/dto"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/payment"
)

type PaymentHandler struct {
	payments *payment.UseCases
}

func NewPaymentHandler(payments *payment.UseCases) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	input := payment.ListInput{
		ActorID:   userID,
		IsAdmin:   isAdmin,
		MinAmount: parseFloatQuery(c, "minAmount"),
		MaxAmount: parseFloatQuery(c, "maxAmount"),
		Page:      page,
		Limit:     limit,
	}
	if s := c.Query("status"); s != "" {
		status, err := valueobject.NewPaymentStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Status = &status
	}
	if s := c.Query("escrowStatus"); s != "" {
		status, err := valueobject.NewEscrowStatus(s)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.EscrowStatus = &status
	}

	payments, total, err := h.payments.List(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	paginated(c, dto.ToPaymentResponses(payments), total, page, limit)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c, "id", "платежа")
	if !ok {
		return
	}

	p, err := h.payments.Get(c.Request.Context(), paymentID, userID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponse(p))
}

// Release ручная выплата перевозчику, только администратор.
func (h *PaymentHandler) Release(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c, "id", "платежа")
	if !ok {
		return
	}

	p, err := h.payments.Release(c.Request.Context(), payment.ReleaseInput{
		PaymentID: paymentID,
		ActorID:   userID,
		IsAdmin:   isAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponse(p))
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c, "id", "платежа")
	if !ok {
		return
	}
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "причина возврата обязательна")
		return
	}

	p, err := h.payments.Refund(c.Request.Context(), payment.RefundInput{
		PaymentID: paymentID,
		ActorID:   userID,
		IsAdmin:   isAdmin,
		Reason:    req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponse(p))
}

func (h *PaymentHandler) Dispute(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c, "id", "платежа")
	if !ok {
		return
	}
	var req dto.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	reason, err := valueobject.NewDisputeReason(req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.payments.Dispute(c.Request.Context(), payment.DisputeInput{
		PaymentID:   paymentID,
		ActorID:     userID,
		Reason:      reason,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponse(p))
}

func (h *PaymentHandler) Resolve(c *gin.Context) {
	userID, isAdmin, ok := actor(c)
	if !ok {
		return
	}
	paymentID, ok := pathID(c, "id", "платежа")
	if !ok {
		return
	}
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	p, err := h.payments.Resolve(c.Request.Context(), payment.ResolveInput{
		PaymentID:        paymentID,
		ActorID:          userID,
		IsAdmin:          isAdmin,
		ReleaseToCarrier: req.ReleaseToCarrier,
		Resolution:       req.Resolution,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentResponse(p))
}
