package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// FeedbackController binds reviews to delivered orders.
type FeedbackController struct {
	feedbackService services.FeedbackService
}

func NewFeedbackController(feedbackService services.FeedbackService) *FeedbackController {
	return &FeedbackController{feedbackService: feedbackService}
}

// SubmitFeedback handles POST /feedback.
func (fc *FeedbackController) SubmitFeedback(ctx *gin.Context) {
	var req models.SubmitFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	view, svcErr := fc.feedbackService.SubmitFeedback(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"feedback": view})
}

// ListAll handles GET /feedback.
func (fc *FeedbackController) ListAll(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	views, meta, svcErr := fc.feedbackService.ListAll(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"feedbacks": views, "meta": meta})
}

// ListByProduct handles GET /feedback/product/:product_id.
func (fc *FeedbackController) ListByProduct(ctx *gin.Context) {
	productID, ok := intParam(ctx, "product_id")
	if !ok {
		return
	}

	entries, svcErr := fc.feedbackService.ListByProduct(ctx.Request.Context(), productID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"product_id": productID, "feedbacks": entries})
}

// ListByOrder handles GET /feedback/order/:order_id.
func (fc *FeedbackController) ListByOrder(ctx *gin.Context) {
	views, svcErr := fc.feedbackService.ListByOrder(ctx.Request.Context(), ctx.Param("order_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"feedbacks": views})
}

func feedbackTarget(ctx *gin.Context) (models.Actor, int, string, bool) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.Actor{}, 0, "", false
	}
	productID, ok := intParam(ctx, "product_id")
	if !ok {
		return models.Actor{}, 0, "", false
	}
	return actor, productID, ctx.Param("feedback_id"), true
}

// Reply handles POST /feedback/:product_id/:feedback_id/reply.
func (fc *FeedbackController) Reply(ctx *gin.Context) {
	actor, productID, feedbackID, ok := feedbackTarget(ctx)
	if !ok {
		return
	}
	var req models.ReplyFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	view, svcErr := fc.feedbackService.ReplyFeedback(ctx.Request.Context(), actor, productID, feedbackID, req.Reply)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"feedback": view})
}

// Edit handles PATCH /feedback/:product_id/:feedback_id.
func (fc *FeedbackController) Edit(ctx *gin.Context) {
	actor, productID, feedbackID, ok := feedbackTarget(ctx)
	if !ok {
		return
	}
	var req models.EditFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	view, svcErr := fc.feedbackService.EditFeedback(ctx.Request.Context(), actor, productID, feedbackID, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"feedback": view})
}

// Delete handles DELETE /feedback/:product_id/:feedback_id.
func (fc *FeedbackController) Delete(ctx *gin.Context) {
	actor, productID, feedbackID, ok := feedbackTarget(ctx)
	if !ok {
		return
	}

	if svcErr := fc.feedbackService.DeleteFeedback(ctx.Request.Context(), actor, productID, feedbackID); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Feedback deleted"})
}
