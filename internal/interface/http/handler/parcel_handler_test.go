package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/handler"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/parcel"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
)

func newParcelRouter() *gin.Engine {
	clock := usecasetest.NewClock(start)
	parcels := usecasetest.NewParcelRepository()
	payments := usecasetest.NewPaymentRepository()
	reps := usecasetest.NewReputationRepository()
	photos := &usecasetest.PhotoStorage{}

	h := handler.NewParcelHandler(
		parcel.NewCreateParcelUseCase(parcels, clock.Now),
		parcel.NewGetParcelUseCase(parcels),
		parcel.NewListParcelsUseCase(parcels),
		parcel.NewStatusUseCases(parcel.StatusDeps{
			Tx:          usecasetest.NewTxManager(parcels, payments, reps),
			Parcels:     parcels,
			Payments:    payments,
			Reputations: reps,
			Now:         clock.Now,
		}),
		parcel.NewAddTrackingEventUseCase(parcels, photos, clock.Now),
		parcel.NewUploadPhotoUseCase(parcels, photos),
	)

	r := gin.New()
	r.Use(asUser)
	r.POST("/parcels", h.CreateParcel)
	r.GET("/parcels", h.ListParcels)
	r.GET("/parcels/:id", h.GetParcel)
	r.POST("/parcels/:id/cancel", h.CancelParcel)
	r.POST("/parcels/:id/pickup", h.PickUpParcel)
	return r
}

func sendJSON(r *gin.Engine, method, path string, user uuid.UUID, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func parcelRequest(phone string) map[string]any {
	return map[string]any{
		"recipient": map[string]any{
			"name":         "Мария",
			"phone_number": phone,
			"address":      map[string]any{"city": "Berlin", "country": "DE"},
		},
		"description":       "Книги",
		"category":          "books",
		"dimensions":        map[string]any{"length": 20, "width": 15, "height": 10},
		"weight":            1.2,
		"declared_value":    80,
		"delivery_deadline": start.Add(7 * 24 * time.Hour),
	}
}

type parcelBody struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	Volume         float64   `json:"volume"`
	TrackingEvents []struct {
		Event string `json:"event"`
	} `json:"tracking_events"`
}

func TestParcelHandler_CreateGetCancel(t *testing.T) {
	r := newParcelRouter()
	sender := uuid.New()

	w, env := sendJSON(r, http.MethodPost, "/parcels", sender, parcelRequest("+49 151 2345678"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created parcelBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 3000.0, created.Volume)
	require.Len(t, created.TrackingEvents, 1)
	assert.Equal(t, "created", created.TrackingEvents[0].Event)

	path := "/parcels/" + created.ID.String()
	w, _ = sendJSON(r, http.MethodGet, path, uuid.New(), nil)
	assert.Equal(t, http.StatusOK, w.Code, "ожидающая посылка видна перевозчикам")

	w, env = sendJSON(r, http.MethodPost, path+"/cancel", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = sendJSON(r, http.MethodPost, path+"/cancel", sender, map[string]any{"description": "передумал"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled parcelBody
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)

	w, _ = sendJSON(r, http.MethodGet, path, uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "отменённая посылка видна только участникам")

	w, env = sendJSON(r, http.MethodPost, path+"/pickup", sender, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "забирает посылку только перевозчик")
	require.NotNil(t, env.Error)
}

func TestParcelHandler_Validation(t *testing.T) {
	r := newParcelRouter()
	sender := uuid.New()

	w, _ := sendJSON(r, http.MethodPost, "/parcels", uuid.Nil, parcelRequest("+49 151 2345678"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := sendJSON(r, http.MethodPost, "/parcels", sender, parcelRequest("звоните вечером"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	bad := parcelRequest("+49 151 2345678")
	bad["category"] = "weapons"
	w, _ = sendJSON(r, http.MethodPost, "/parcels", sender, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = sendJSON(r, http.MethodGet, "/parcels/123", sender, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = sendJSON(r, http.MethodGet, "/parcels/"+uuid.NewString(), sender, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParcelHandler_ListIsPaginated(t *testing.T) {
	r := newParcelRouter()
	sender := uuid.New()
	for i := 0; i < 3; i++ {
		w, _ := sendJSON(r, http.MethodPost, "/parcels", sender, parcelRequest("+49 151 2345678"))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	_, _ = sendJSON(r, http.MethodPost, "/parcels", uuid.New(), parcelRequest("+49 151 2345678"))

	w, _ := sendJSON(r, http.MethodGet, "/parcels?page=1&limit=2", sender, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data       []parcelBody `json:"data"`
		Pagination struct {
			Total   int  `json:"total"`
			Limit   int  `json:"limit"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Limit)
	assert.True(t, page.Pagination.HasMore)

	w, _ = sendJSON(r, http.MethodGet, "/parcels?status=bogus", sender, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
