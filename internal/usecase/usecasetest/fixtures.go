package usecasetest

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/domain/entity"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
)

// Parcel ожидающая посылка Москва → Берлин стоимостью 150.
func Parcel(senderID uuid.UUID, now time.Time) *entity.Parcel {
	return &entity.Parcel{
		ID:       uuid.New(),
		SenderID: senderID,
		Recipient: entity.Recipient{
			Name:        "Анна",
			PhoneNumber: "+49 30 000000",
			Address:     valueobject.Address{City: "Berlin", Country: "DE"},
		},
		Description:      "Документы",
		Category:         valueobject.CategoryDocuments,
		Dimensions:       entity.Dimensions{Length: 10, Width: 10, Height: 10},
		Weight:           2.5,
		Volume:           1000,
		DeclaredValue:    150,
		Currency:         valueobject.DefaultCurrency,
		DeliveryDeadline: now.Add(5 * 24 * time.Hour),
		Status:           valueobject.ParcelStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Travel запланированная поездка, прибывающая за двое суток до срока Parcel.
func Travel(carrierID uuid.UUID, now time.Time) *entity.Travel {
	return &entity.Travel{
		ID:                uuid.New(),
		CarrierID:         carrierID,
		Departure:         valueobject.Location{City: "Moscow", Country: "RU"},
		Arrival:           valueobject.Location{City: "Berlin", Country: "DE"},
		TravelMode:        valueobject.TravelModeAir,
		DepartureDate:     now.Add(24 * time.Hour),
		ArrivalDate:       now.Add(3 * 24 * time.Hour),
		AvailableCapacity: entity.Capacity{Weight: 10, Volume: 4000},
		BaseDeliveryFee:   20,
		Currency:          valueobject.DefaultCurrency,
		Negotiable:        true,
		Status:            valueobject.TravelStatusPlanned,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
