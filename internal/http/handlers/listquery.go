package handlers

import (
	"strconv"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// parseListQuery reads the react-admin style pagination params:
// ?_start=0&_end=10&_sort=createdAt&_order=desc. Bad numbers fall back to
// the defaults rather than erroring, matching the original surface.
func parseListQuery(ctx *gin.Context) user.ListFilter {
	start := atoiOr(ctx.DefaultQuery("_start", "0"), 0)
	end := atoiOr(ctx.DefaultQuery("_end", "10"), 10)

	if start < 0 {
		start = 0
	}

	if end < start {
		end = start
	}

	return user.ListFilter{
		Start: start,
		End:   end,
		Sort:  ctx.DefaultQuery("_sort", "createdAt"),
		Order: ctx.DefaultQuery("_order", "desc"),
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
