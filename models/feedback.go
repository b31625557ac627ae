package models

import "time"

// AnonymousFeedbackName is used when the originating order carries no shipping name.
const AnonymousFeedbackName = "anonymous"

// FeedbackEntry is one customer review, bound to the order it came from.
type FeedbackEntry struct {
	ID        string    `bson:"id" json:"id"`
	OrderID   string    `bson:"order_id" json:"order_id"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	Reply     string    `bson:"reply,omitempty" json:"reply,omitempty"`
	UserName  string    `bson:"user_name" json:"user_name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ProductFeedback is the per-product document holding every entry for that product.
type ProductFeedback struct {
	ProductID int             `bson:"product_id" json:"product_id"`
	Feedbacks []FeedbackEntry `bson:"feedbacks" json:"feedbacks"`
}

// Entry returns the entry with id feedbackID.
func (pf *ProductFeedback) Entry(feedbackID string) (*FeedbackEntry, bool) {
	for i := range pf.Feedbacks {
		if pf.Feedbacks[i].ID == feedbackID {
			return &pf.Feedbacks[i], true
		}
	}
	return nil, false
}

// FeedbackView is an entry annotated with the product it belongs to.
type FeedbackView struct {
	ProductID int `json:"product_id"`
	FeedbackEntry
}

// SubmitFeedbackRequest is the customer payload for a new review.
type SubmitFeedbackRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	ProductID int    `json:"product_id" binding:"required,gt=0"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// EditFeedbackRequest changes rating and/or comment.
type EditFeedbackRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// ReplyFeedbackRequest is the moderator reply payload.
type ReplyFeedbackRequest struct {
	Reply string `json:"reply"`
}
