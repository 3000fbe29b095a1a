package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/mwalimu/core"
)

var (
	orderingParam = "ordering"
	idsParam      = "id"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the "ordering" query param, e.g. "-due_date,title"; unknown fields are ignored.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]bool) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	ord.Orderings = core.ParseOrdering(val, allowed)
}

// DestroyMultipleRequest holds the IDs of a bulk delete, given as repeated "id" query params
// or as a JSON body.
type DestroyMultipleRequest struct {
	IDs []string `json:"ids"`
}

func (dmr *DestroyMultipleRequest) Bind(ctx echo.Context) error {
	if ids := ctx.QueryParams()[idsParam]; len(ids) > 0 {
		dmr.IDs = ids
	} else if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(dmr); err != nil {
			return err
		}
	}
	dmr.IDs = core.CleanStrings(dmr.IDs, true /* lower */)
	return nil
}
