package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kolofinance/kolo"
	"github.com/kolofinance/kolo/api/middleware"
	"github.com/kolofinance/kolo/config"
)

type Api struct {
	kolo   *kolo.Kolo
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/transfers/bulk", a.PostBulkTransfer)
	router.POST("/transfers/bulk/queue", a.QueueBulkTransfer)
	router.POST("/postings/retry", a.RetryPostings)

	router.POST("/loans", a.CreateLoan)
	router.GET("/loans/:id", a.GetLoan)
	router.GET("/loans", a.GetAllLoans)
	router.DELETE("/loans/:id", a.DeleteLoan)
	router.POST("/loans/delinquency/run", a.RunDelinquency)

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts/:id", a.GetAccount)
	router.GET("/accounts", a.GetAllAccounts)

	router.GET("/entries", a.GetAllEntries)
	router.GET("/entries/reference/:reference", a.GetEntriesByReference)
	return a.router
}

func NewAPI(k *kolo.Kolo) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	r.Use(middleware.UserContextMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{kolo: k, router: r}
}
