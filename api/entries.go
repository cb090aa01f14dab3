package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kolofinance/kolo/internal/apierror"
)

func (a Api) GetEntriesByReference(c *gin.Context) {
	reference, passed := c.Params.Get("reference")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required. pass it in the route /reference/:reference"})
		return
	}

	entries, err := a.kolo.GetEntriesByReference(c.Request.Context(), reference)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (a Api) GetAllEntries(c *gin.Context) {
	limit, offset := pagination(c)
	entries, err := a.kolo.GetAllEntries(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
