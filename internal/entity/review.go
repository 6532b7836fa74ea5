package entity

// Review represents one entry in a business's review panel.
//
// Rating is mandatory: a panel container without a parsable 1-5 rating is
// discarded during extraction and never reaches this type's consumers.
type Review struct {
	ReviewID         string  `json:"review_id"`
	ReviewerName     *string `json:"reviewer_name"`
	ReviewerSubtitle *string `json:"reviewer_subtitle"`
	ReviewDate       *string `json:"review_date"`
	Rating           int     `json:"rating"`
	ReviewText       *string `json:"review_text"`
	LikesCount       *int    `json:"likes_count"`
	ShareLink        *string `json:"share_link"`
}
