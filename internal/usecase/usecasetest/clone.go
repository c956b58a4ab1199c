package usecasetest

import "github.com/ignatzorin/crowdship-backend/internal/domain/entity"

func cloneMatch(m *entity.Match) *entity.Match {
	c := *m
	c.Negotiation.History = append([]entity.NegotiationEntry(nil), m.Negotiation.History...)
	if m.Agreement != nil {
		a := *m.Agreement
		c.Agreement = &a
	}
	return &c
}

func cloneParcel(p *entity.Parcel) *entity.Parcel {
	c := *p
	c.SpecialHandling = append(c.SpecialHandling[:0:0], p.SpecialHandling...)
	c.PhotoKeys = append([]string(nil), p.PhotoKeys...)
	c.TrackingEvents = append([]entity.TrackingEvent(nil), p.TrackingEvents...)
	return &c
}

func cloneTravel(t *entity.Travel) *entity.Travel {
	c := *t
	return &c
}

func clonePayment(p *entity.Payment) *entity.Payment {
	c := *p
	if p.Dispute != nil {
		d := *p.Dispute
		c.Dispute = &d
	}
	return &c
}
