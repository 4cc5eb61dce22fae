package entity

import "time"

// FollowUpOffsets are the delays of the three campaign emails after a lead converts.
var FollowUpOffsets = [3]time.Duration{
	24 * time.Hour,
	72 * time.Hour,
	120 * time.Hour,
}

// FollowUpJob is the body of one delayed campaign email, as delivered back to
// POST /api/followup or consumed by a queue worker.
type FollowUpJob struct {
	Secret         string `json:"secret"`
	Name           string `json:"name"`
	Email          string `json:"email" validate:"required"`
	ProjectType    string `json:"projectType"`
	Tier           Tier   `json:"tier"`
	FollowupNumber int    `json:"followupNumber" validate:"required,min=1,max=3"`

	OwnerName     string `json:"ownerName,omitempty"`
	OwnerPhone    string `json:"ownerPhone,omitempty"`
	EstimatorLink string `json:"estimatorLink,omitempty"`
	BookingLink   string `json:"bookingLink,omitempty"`
}
