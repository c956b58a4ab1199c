package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/crowdship-backend/internal/interface/http/response"
)

// UUIDValidator отклоняет запрос с 400, если любой из параметров пути не UUID.
//
//	parcels.GET("/:id", UUIDValidator("id"), h.Parcel.GetParcel)
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				response.BadRequest(c, "параметр "+name+" должен быть UUID")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
