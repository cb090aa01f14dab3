package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kolofinance/kolo/api/middleware"
	model2 "github.com/kolofinance/kolo/api/model"
	"github.com/kolofinance/kolo/internal/apierror"
)

func (a Api) CreateLoan(c *gin.Context) {
	var newLoan model2.CreateLoan
	if err := c.ShouldBindJSON(&newLoan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newLoan.ValidateCreateLoan(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.kolo.CreateLoan(c.Request.Context(), newLoan.ToLoan(), middleware.RequestUser(c))
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetLoan(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	loan, err := a.kolo.GetLoan(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, loan)
}

func (a Api) GetAllLoans(c *gin.Context) {
	limit, offset := pagination(c)
	loans, err := a.kolo.GetAllLoans(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, loans)
}

// DeleteLoan retires a loan. The row stays behind with its history; only its
// lifecycle state changes.
func (a Api) DeleteLoan(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	if err := a.kolo.SoftDeleteLoan(c.Request.Context(), id, middleware.RequestUser(c)); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "loan deleted"})
}

// RunDelinquency triggers the daily delinquency batch outside its schedule.
func (a Api) RunDelinquency(c *gin.Context) {
	summary, err := a.kolo.RunDelinquencyNow(c.Request.Context(), middleware.RequestUser(c))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
