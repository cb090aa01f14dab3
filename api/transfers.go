/*
Copyright 2024 Kolo Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kolofinance/kolo/api/middleware"
	model2 "github.com/kolofinance/kolo/api/model"
)

// PostBulkTransfer handles a synchronous bulk transfer. It binds the incoming
// JSON request to a BulkTransferRequest, validates every command, and posts
// the batch. A batch with failed commands is still a 201: the failures are in
// the response body and recorded for retry.
func (a Api) PostBulkTransfer(c *gin.Context) {
	var req model2.BulkTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.ValidateBulkTransfer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.kolo.PostBulkTransfer(c.Request.Context(), "", req.ToCommands(), middleware.RequestUser(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// QueueBulkTransfer hands the batch to the posting workers instead of posting
// inline, and responds with the batch id the caller can poll on.
func (a Api) QueueBulkTransfer(c *gin.Context) {
	var req model2.BulkTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.ValidateBulkTransfer(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	batchID, err := a.kolo.EnqueueBulkBatch(c.Request.Context(), req.ToCommands(), middleware.RequestUser(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"batch_id": batchID})
}

// RetryPostings triggers a synchronous retry sweep over pending and errored
// posting records.
func (a Api) RetryPostings(c *gin.Context) {
	resp, err := a.kolo.RetryPendingPostings(c.Request.Context(), middleware.RequestUser(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
