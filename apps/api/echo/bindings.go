package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads ?ordering=field,-other. Fields are mapped to their column through allowed; unknown fields are dropped.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if col, ok := allowed[field]; ok {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: col, Ascending: !descending})
		}
	}
}

// emptyIfNil makes lists render as [] rather than null.
func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
