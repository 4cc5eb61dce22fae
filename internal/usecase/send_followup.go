package usecase

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/entity"
)

// SendFollowUpUseCase delivers one campaign email. The HTTP callback and both queue
// workers go through it, so the secret check is the same on every path.
type SendFollowUpUseCase struct {
	Secret   string
	Sender   FollowUpSender
	Campaign Campaign

	validate *validator.Validate
}

func NewSendFollowUpUseCase(secret string, sender FollowUpSender, campaign Campaign) *SendFollowUpUseCase {
	return &SendFollowUpUseCase{
		Secret:   secret,
		Sender:   sender,
		Campaign: campaign,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (uc *SendFollowUpUseCase) Execute(ctx context.Context, job entity.FollowUpJob) error {
	// 1. Shared secret
	if uc.Secret == "" || subtle.ConstantTimeCompare([]byte(job.Secret), []byte(uc.Secret)) != 1 {
		return &DomainError{Code: CodeUnauthorized, Message: "Unauthorized"}
	}

	// 2. Required fields
	if err := uc.validate.Struct(job); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &DomainError{Code: CodeValidation, Message: followUpValidationMessage(verrs)}
		}
		return &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	// 3. Campaign details the publisher did not carry
	job.OwnerName = orDefault(job.OwnerName, uc.Campaign.OwnerName)
	job.OwnerPhone = orDefault(job.OwnerPhone, uc.Campaign.OwnerPhone)
	job.EstimatorLink = orDefault(job.EstimatorLink, uc.Campaign.EstimatorLink)
	job.BookingLink = orDefault(job.BookingLink, uc.Campaign.BookingLink)

	msg := BuildFollowUpMessage(job)

	if err := uc.Sender.SendFollowUp(ctx, FollowUpEmail{To: job.Email, Subject: msg.Subject, Text: msg.Text}); err != nil {
		return &TechnicalError{Code: CodeDelivery, Message: "failed to send follow-up", Err: err}
	}

	log.Info().
		Int("followup", job.FollowupNumber).
		Str("tier", string(job.Tier)).
		Str("cta", string(msg.CallToAction)).
		Msg("follow-up sent")
	return nil
}

func followUpValidationMessage(verrs validator.ValidationErrors) string {
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "Missing required fields"
		}
	}
	return "followupNumber must be between 1 and 3"
}
