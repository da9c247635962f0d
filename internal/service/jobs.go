package service

import "context"

// MediaJob identifies one post of a stored campaign
type MediaJob struct {
	UserID     uint   `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	PostIndex  int    `json:"post_index"`
}

// PublishJob publishes one variation of a post
type PublishJob struct {
	MediaJob
	VariationIndex int `json:"variation_index"`
}

// Enqueuer hands media and publish work to background workers. When a
// Service has none the work runs in a goroutine of the calling process.
type Enqueuer interface {
	EnqueueVideo(ctx context.Context, job MediaJob) error
	EnqueueAudio(ctx context.Context, job MediaJob) error
	EnqueuePublish(ctx context.Context, job PublishJob) error
}
