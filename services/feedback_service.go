package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgFeedbackNotFound = "feedback not found"

// FeedbackService binds customer reviews to the orders they came from.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, req *models.SubmitFeedbackRequest) (*models.FeedbackView, *apperrors.Error)
	ReplyFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID, reply string) (*models.FeedbackView, *apperrors.Error)
	EditFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string, req *models.EditFeedbackRequest) (*models.FeedbackView, *apperrors.Error)
	DeleteFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string) *apperrors.Error
	ListByProduct(ctx context.Context, productID int) ([]models.FeedbackEntry, *apperrors.Error)
	ListByOrder(ctx context.Context, orderID string) ([]models.FeedbackView, *apperrors.Error)
	ListAll(ctx context.Context, page, limit int) ([]models.FeedbackView, MetaData, *apperrors.Error)
}

type feedbackServiceImpl struct {
	repo    repository.FeedbackRepository
	orders  repository.OrderRepository
	metrics aws_pkg.MetricsRecorder
	now     func() time.Time
	logger  *zap.Logger
}

// NewFeedbackService creates a new FeedbackService. metrics may be nil.
func NewFeedbackService(
	repo repository.FeedbackRepository,
	orders repository.OrderRepository,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackServiceImpl{
		repo:    repo,
		orders:  orders,
		metrics: metrics,
		now:     time.Now,
		logger:  logger,
	}
}

func validateRating(rating int) *apperrors.Error {
	if rating < 1 || rating > 5 {
		return apperrors.Validation("rating must be between 1 and 5")
	}
	return nil
}

// SubmitFeedback records one review per (order, product). The order must contain the
// product and must have been delivered.
func (s *feedbackServiceImpl) SubmitFeedback(ctx context.Context, req *models.SubmitFeedbackRequest) (*models.FeedbackView, *apperrors.Error) {
	if appErr := validateRating(req.Rating); appErr != nil {
		return nil, appErr
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, apperrors.Validation("comment is required")
	}

	order, err := s.orders.FindByOrderID(ctx, req.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(msgOrderNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to fetch order for feedback", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to submit feedback", err)
	}
	if !order.ContainsProduct(req.ProductID) {
		return nil, apperrors.Validation("order %s does not contain product %d", req.OrderID, req.ProductID)
	}
	if !order.OrderStatus.Fulfilled() {
		return nil, apperrors.Validation("feedback is accepted only after delivery")
	}

	userName := strings.TrimSpace(order.ShippingInfo.Name)
	if userName == "" {
		userName = models.AnonymousFeedbackName
	}

	entry := models.FeedbackEntry{
		ID:        uuid.NewString(),
		OrderID:   order.OrderID,
		Rating:    req.Rating,
		Comment:   comment,
		UserName:  userName,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.AppendEntry(ctx, req.ProductID, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateFeedback) {
			return nil, apperrors.Conflict("feedback already submitted for this order and product")
		}
		s.logger.Error("Failed to store feedback",
			zap.String("order_id", req.OrderID),
			zap.Int("product_id", req.ProductID),
			zap.Error(err))
		return nil, apperrors.Internal("Failed to submit feedback", err)
	}

	recordCount(ctx, s.metrics, s.logger, aws_pkg.MetricFeedbackSubmitted)
	s.logger.Info("Feedback submitted",
		zap.String("order_id", entry.OrderID),
		zap.Int("product_id", req.ProductID),
		zap.String("feedback_id", entry.ID))
	return &models.FeedbackView{ProductID: req.ProductID, FeedbackEntry: entry}, nil
}

func (s *feedbackServiceImpl) findEntry(ctx context.Context, productID int, feedbackID string) (*models.FeedbackEntry, *apperrors.Error) {
	doc, err := s.repo.FindByProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("no feedback for product %d", productID)
	}
	if err != nil {
		s.logger.Error("Failed to fetch feedback", zap.Int("product_id", productID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch feedback", err)
	}
	entry, ok := doc.Entry(feedbackID)
	if !ok {
		return nil, apperrors.NotFound(msgFeedbackNotFound)
	}
	return entry, nil
}

// authorizeAuthor allows moderators and the customer who placed the originating order.
func (s *feedbackServiceImpl) authorizeAuthor(ctx context.Context, actor models.Actor, entry *models.FeedbackEntry) *apperrors.Error {
	if actor.Can(models.CapFeedback) {
		return nil
	}
	order, err := s.orders.FindByOrderID(ctx, entry.OrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to fetch order for feedback ownership", zap.String("order_id", entry.OrderID), zap.Error(err))
		return apperrors.Internal("Failed to authorize request", err)
	}
	if order == nil || !order.OwnedBy(actor.UserID) {
		return apperrors.Forbidden("not allowed to modify this feedback")
	}
	return nil
}

func (s *feedbackServiceImpl) saveEntry(ctx context.Context, productID int, entry *models.FeedbackEntry) *apperrors.Error {
	entry.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateEntry(ctx, productID, *entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(msgFeedbackNotFound)
		}
		s.logger.Error("Failed to update feedback",
			zap.Int("product_id", productID),
			zap.String("feedback_id", entry.ID),
			zap.Error(err))
		return apperrors.Internal("Failed to update feedback", err)
	}
	return nil
}

func (s *feedbackServiceImpl) ReplyFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID, reply string) (*models.FeedbackView, *apperrors.Error) {
	if !actor.Can(models.CapFeedback) {
		return nil, apperrors.Forbidden("not allowed to reply to feedback")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperrors.Validation("reply is required")
	}

	entry, appErr := s.findEntry(ctx, productID, feedbackID)
	if appErr != nil {
		return nil, appErr
	}
	entry.Reply = reply
	if appErr := s.saveEntry(ctx, productID, entry); appErr != nil {
		return nil, appErr
	}

	s.logger.Info("Feedback replied", zap.Int("product_id", productID), zap.String("feedback_id", feedbackID))
	return &models.FeedbackView{ProductID: productID, FeedbackEntry: *entry}, nil
}

func (s *feedbackServiceImpl) EditFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string, req *models.EditFeedbackRequest) (*models.FeedbackView, *apperrors.Error) {
	if req.Rating == nil && req.Comment == nil {
		return nil, apperrors.Validation("nothing to update")
	}
	if req.Rating != nil {
		if appErr := validateRating(*req.Rating); appErr != nil {
			return nil, appErr
		}
	}
	var comment string
	if req.Comment != nil {
		comment = strings.TrimSpace(*req.Comment)
		if comment == "" {
			return nil, apperrors.Validation("comment cannot be empty")
		}
	}

	entry, appErr := s.findEntry(ctx, productID, feedbackID)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := s.authorizeAuthor(ctx, actor, entry); appErr != nil {
		return nil, appErr
	}

	if req.Rating != nil {
		entry.Rating = *req.Rating
	}
	if req.Comment != nil {
		entry.Comment = comment
	}
	if appErr := s.saveEntry(ctx, productID, entry); appErr != nil {
		return nil, appErr
	}

	s.logger.Info("Feedback edited", zap.Int("product_id", productID), zap.String("feedback_id", feedbackID))
	return &models.FeedbackView{ProductID: productID, FeedbackEntry: *entry}, nil
}

func (s *feedbackServiceImpl) DeleteFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string) *apperrors.Error {
	entry, appErr := s.findEntry(ctx, productID, feedbackID)
	if appErr != nil {
		return appErr
	}
	if appErr := s.authorizeAuthor(ctx, actor, entry); appErr != nil {
		return appErr
	}

	if err := s.repo.DeleteEntry(ctx, productID, feedbackID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(msgFeedbackNotFound)
		}
		s.logger.Error("Failed to delete feedback",
			zap.Int("product_id", productID),
			zap.String("feedback_id", feedbackID),
			zap.Error(err))
		return apperrors.Internal("Failed to delete feedback", err)
	}

	s.logger.Info("Feedback deleted", zap.Int("product_id", productID), zap.String("feedback_id", feedbackID))
	return nil
}

// ListByProduct returns a product's entries. A product nobody reviewed has none.
func (s *feedbackServiceImpl) ListByProduct(ctx context.Context, productID int) ([]models.FeedbackEntry, *apperrors.Error) {
	doc, err := s.repo.FindByProduct(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.FeedbackEntry{}, nil
	}
	if err != nil {
		s.logger.Error("Failed to fetch feedback", zap.Int("product_id", productID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch feedback", err)
	}
	if doc.Feedbacks == nil {
		return []models.FeedbackEntry{}, nil
	}
	return doc.Feedbacks, nil
}

func (s *feedbackServiceImpl) ListByOrder(ctx context.Context, orderID string) ([]models.FeedbackView, *apperrors.Error) {
	views, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to fetch feedback for order", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch feedback", err)
	}
	return views, nil
}

func (s *feedbackServiceImpl) ListAll(ctx context.Context, page, limit int) ([]models.FeedbackView, MetaData, *apperrors.Error) {
	views, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list feedback", zap.Error(err))
		return nil, MetaData{}, apperrors.Internal("Failed to fetch feedback", err)
	}
	return views, newMeta(page, limit, total), nil
}
