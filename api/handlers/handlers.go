package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"viral-recipes/db"
	"viral-recipes/dto"
	"viral-recipes/orchestrator"
	"viral-recipes/publisher"
	"viral-recipes/services"
)

// ListRecipesHandler godoc
// @Summary      List processed recipes
// @Description  List routed recipes with filters and pagination, most recent first
// @Tags         recipes
// @Param        page       query  int     false  "Page number (1-based)"
// @Param        page_size  query  int     false  "Page size (<=100)"
// @Param        category   query  string  false  "Category"
// @Param        status     query  string  false  "published | queued | rejected | duplicate"
// @Param        tag        query  string  false  "Tag"
// @Produce      json
// @Success      200  {object}  dto.PaginationRecipeDTO
// @Router       /recipes [get]
func ListRecipesHandler(svc *services.RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ListRecipesInput
		in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		in.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
		in.Category = c.Query("category")
		in.Status = c.Query("status")
		in.Tag = c.Query("tag")

		page, err := svc.List(c.Request.Context(), in)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// TopRecipesHandler godoc
// @Summary      Top published recipes
// @Tags         recipes
// @Param        limit  query  int  false  "Number of recipes (<=50)"
// @Produce      json
// @Success      200  {array}  dto.RecipeDTO
// @Router       /recipes/top [get]
func TopRecipesHandler(svc *services.RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		items, err := svc.Top(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GetRecipeHandler godoc
// @Summary      Get recipe by slug
// @Tags         recipes
// @Param        slug  path  string  true  "Recipe slug"
// @Produce      json
// @Success      200  {object}  dto.RecipeDetailDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /recipes/{slug} [get]
func GetRecipeHandler(svc *services.RecipeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// ListPendingHandler godoc
// @Summary      List recipes awaiting approval
// @Tags         pending
// @Produce      json
// @Success      200  {array}  dto.PendingDTO
// @Router       /pending [get]
func ListPendingHandler(svc *services.PendingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// ApprovePendingHandler godoc
// @Summary      Approve and publish a pending recipe
// @Description  Publishes through the CMS sink with retries. On failure the entry stays pending.
// @Tags         pending
// @Security     BearerAuth
// @Param        id  path  string  true  "Pending ID"
// @Produce      json
// @Success      200  {object}  dto.PendingDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Failure      502  {object}  dto.ErrorResponseDTO
// @Router       /pending/{id}/approve [post]
func ApprovePendingHandler(svc *services.PendingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Approve(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// RejectPendingHandler godoc
// @Summary      Reject a pending recipe
// @Tags         pending
// @Security     BearerAuth
// @Param        id    path  string                    true   "Pending ID"
// @Param        body  body  dto.RejectPendingRequest  false  "Reason"
// @Produce      json
// @Success      200  {object}  dto.PendingDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /pending/{id}/reject [post]
func RejectPendingHandler(svc *services.PendingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RejectPendingRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
				return
			}
		}
		p, err := svc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// StatusHandler godoc
// @Summary      System status
// @Description  Orchestrator state, current and last cycle, totals and publisher statistics
// @Tags         system
// @Produce      json
// @Success      200  {object}  dto.StatusDTO
// @Router       /status [get]
func StatusHandler(svc *services.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Status(c.Request.Context()))
	}
}

// StartSystemHandler godoc
// @Summary      Start the cycle loop
// @Tags         system
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /system/start [post]
func StartSystemHandler(svc *services.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Start(); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "orchestrator started"})
	}
}

// StopSystemHandler godoc
// @Summary      Stop the cycle loop
// @Description  Sleeping is cancelled at once; a running cycle finishes its current phase first.
// @Tags         system
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /system/stop [post]
func StopSystemHandler(svc *services.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := svc.Stop()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "orchestrator " + state.String()})
	}
}

// RunCycleHandler godoc
// @Summary      Run one cycle now
// @Tags         system
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.CycleDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /system/cycle [post]
func RunCycleHandler(svc *services.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.RunCycle(c.Request.Context())
		if err != nil && !errors.Is(err, orchestrator.ErrStopRequested) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ListCyclesHandler godoc
// @Summary      Recent cycle statistics
// @Tags         system
// @Param        limit  query  int  false  "Number of cycles, newest first"
// @Produce      json
// @Success      200  {array}  dto.CycleDTO
// @Router       /cycles [get]
func ListCyclesHandler(svc *services.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		c.JSON(http.StatusOK, svc.Cycles(limit))
	}
}

// writeError 는 도메인 에러를 HTTP 상태 코드로 바꾼다.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, publisher.ErrPendingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, publisher.ErrAlreadyDecided), errors.Is(err, orchestrator.ErrInvalidTransition):
		status = http.StatusConflict
	case publisher.IsRejected(err), publisher.IsTransient(err):
		status = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.JSON(status, dto.ErrorResponseDTO{Error: err.Error()})
}
