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

	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/handler"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
	"github.com/ignatzorin/crowdship-backend/internal/matching"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/match"
	"github.com/ignatzorin/crowdship-backend/internal/usecase/usecasetest"
)

func init() {
	logger.Silence()
	gin.SetMode(gin.TestMode)
}

var start = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type matchEnv struct {
	router  *gin.Engine
	sender  uuid.UUID
	carrier uuid.UUID
	parcel  *entity.Parcel
	travel  *entity.Travel
	matches *usecasetest.MatchRepository
}

// asUser подставляет пользователя так же, как это делает AuthMiddleware.
func asUser(c *gin.Context) {
	if id := c.GetHeader("X-Test-User"); id != "" {
		c.Set("user_id", uuid.MustParse(id))
		c.Set("role", c.GetHeader("X-Test-Role"))
	}
	c.Next()
}

func newMatchEnv() *matchEnv {
	clock := usecasetest.NewClock(start)
	parcels := usecasetest.NewParcelRepository()
	travels := usecasetest.NewTravelRepository()
	matches := usecasetest.NewMatchRepository()
	bookings := usecasetest.NewBookingRepository()
	payments := usecasetest.NewPaymentRepository()
	reps := usecasetest.NewReputationRepository()
	tx := usecasetest.NewTxManager(matches, parcels, bookings, payments)
	collab := match.Collaborators{
		Publisher:   &usecasetest.Publisher{},
		Notifier:    &usecasetest.Notifier{},
		Scheduler:   &usecasetest.Scheduler{},
		Idempotency: &usecasetest.IdempotencyStore{},
		Now:         clock.Now,
	}

	e := &matchEnv{sender: uuid.New(), carrier: uuid.New(), matches: matches}
	e.parcel = usecasetest.Parcel(e.sender, start)
	e.travel = usecasetest.Travel(e.carrier, start)
	parcels.Put(e.parcel)
	travels.Put(e.travel)

	h := handler.NewMatchHandler(handler.MatchUseCases{
		Create:         match.NewCreateMatchUseCase(parcels, travels, matches, reps, matching.NewDefaultScorer(), collab),
		Get:            match.NewGetMatchUseCase(matches, collab),
		List:           match.NewListMatchesUseCase(matches, collab),
		Negotiate:      match.NewNegotiateMatchUseCase(matches, parcels, collab),
		GetNegotiation: match.NewGetNegotiationUseCase(matches),
		Accept:         match.NewAcceptMatchUseCase(tx, matches, parcels, travels, bookings, payments, collab),
		Reject:         match.NewRejectMatchUseCase(matches, collab),
		Cancel:         match.NewCancelMatchUseCase(matches, collab),
	})

	r := gin.New()
	r.Use(asUser)
	r.POST("/matches", h.CreateMatch)
	r.GET("/matches", h.ListMatches)
	r.GET("/matches/:id", h.GetMatch)
	r.POST("/matches/:id/negotiate", h.Negotiate)
	r.GET("/matches/:id/negotiate", h.GetNegotiation)
	r.POST("/matches/:id/accept", h.Accept)
	r.POST("/matches/:id/reject", h.Reject)
	e.router = r
	return e
}

func (e *matchEnv) do(t *testing.T, method, path string, user uuid.UUID, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

type matchBody struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	Negotiation struct {
		InitialFee  float64  `json:"initial_fee"`
		ProposedFee *float64 `json:"proposed_fee"`
		FinalFee    *float64 `json:"final_fee"`
		History     []struct {
			ProposedBy uuid.UUID `json:"proposed_by"`
			Amount     float64   `json:"amount"`
		} `json:"history"`
	} `json:"negotiation"`
	Details *struct {
		Route struct {
			Arrival bool `json:"arrival"`
		} `json:"route"`
	} `json:"details"`
}

func TestMatchHandler_ProposeNegotiateAccept(t *testing.T) {
	e := newMatchEnv()
	create := map[string]any{
		"parcel_id":   e.parcel.ID,
		"travel_id":   e.travel.ID,
		"initial_fee": 20,
	}

	w, env := e.do(t, http.MethodPost, "/matches", e.sender, create, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created matchBody
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "proposed", created.Status)
	assert.Equal(t, 20.0, created.Negotiation.InitialFee)
	require.NotNil(t, created.Details)
	assert.True(t, created.Details.Route.Arrival)

	w, env = e.do(t, http.MethodPost, "/matches", e.sender, create, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, w.Code, "повтор возвращает тот же матч")
	var replayed matchBody
	require.NoError(t, json.Unmarshal(env.Data, &replayed))
	assert.Equal(t, created.ID, replayed.ID)

	path := "/matches/" + created.ID.String()
	w, _ = e.do(t, http.MethodPost, path+"/negotiate", e.carrier, map[string]any{"fee": 25, "message": "аэропорт далеко"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = e.do(t, http.MethodGet, path+"/negotiate", e.sender, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var negotiation struct {
		ProposedFee *float64 `json:"proposed_fee"`
		History     []struct {
			ProposedBy uuid.UUID `json:"proposed_by"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &negotiation))
	require.Len(t, negotiation.History, 1)
	assert.Equal(t, e.carrier, negotiation.History[0].ProposedBy)
	require.NotNil(t, negotiation.ProposedFee)
	assert.Equal(t, 25.0, *negotiation.ProposedFee)

	w, env = e.do(t, http.MethodPost, path+"/accept", e.sender, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var accepted struct {
		Match   matchBody `json:"match"`
		Parcel  struct{ Status string } `json:"parcel"`
		Payment *struct {
			DeliveryFee  float64 `json:"delivery_fee"`
			EscrowStatus string  `json:"escrow_status"`
		} `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	assert.Equal(t, "accepted", accepted.Match.Status)
	require.NotNil(t, accepted.Match.Negotiation.FinalFee)
	assert.Equal(t, 25.0, *accepted.Match.Negotiation.FinalFee)
	assert.Equal(t, "matched", accepted.Parcel.Status)
	require.NotNil(t, accepted.Payment)
	assert.Equal(t, 25.0, accepted.Payment.DeliveryFee)
	assert.Equal(t, "funded", accepted.Payment.EscrowStatus)

	w, env = e.do(t, http.MethodPost, path+"/reject", e.carrier, map[string]any{"reason": "поздно"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}

func TestMatchHandler_ExpiredMatchIsReportedAndNotAccepted(t *testing.T) {
	e := newMatchEnv()
	m, err := entity.NewMatch(entity.NewMatchParams{
		Parcel:     e.parcel,
		Travel:     e.travel,
		InitialFee: 20,
	}, start.Add(-entity.MatchTTL-time.Minute))
	require.NoError(t, err)
	e.matches.Put(m)

	path := "/matches/" + m.ID.String()
	w, env := e.do(t, http.MethodGet, path, e.carrier, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got matchBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "expired", got.Status)

	w, env = e.do(t, http.MethodPost, path+"/accept", e.sender, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EXPIRED", env.Error.Code)
}

func TestMatchHandler_Access(t *testing.T) {
	e := newMatchEnv()

	w, _ := e.do(t, http.MethodPost, "/matches", uuid.Nil, map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(t, http.MethodPost, "/matches", e.sender, map[string]any{"parcel_id": e.parcel.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code, "нет travel_id и цены")

	w, _ = e.do(t, http.MethodGet, "/matches/not-a-uuid", e.sender, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodGet, "/matches?parcelId=bad", e.sender, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPost, "/matches", e.sender, map[string]any{
		"parcel_id": e.parcel.ID, "travel_id": e.travel.ID, "initial_fee": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created matchBody
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, _ = e.do(t, http.MethodGet, "/matches/"+created.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "посторонний пользователь")

	w, env = e.do(t, http.MethodGet, "/matches/"+created.ID.String(), uuid.New(), nil, "X-Test-Role", "admin")
	assert.Equal(t, http.StatusOK, w.Code, "администратор видит любой матч")
}
