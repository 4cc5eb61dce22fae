package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

// CallToAction is the one thing a follow-up email asks the customer to do.
type CallToAction string

const (
	CTAReply    CallToAction = "reply"
	CTAPhotos   CallToAction = "see_photos"
	CTAEstimate CallToAction = "get_estimate"
	CTABooking  CallToAction = "book_consultation"
	CTACall     CallToAction = "call_owner"
)

type FollowUpMessage struct {
	Subject      string
	Text         string
	CallToAction CallToAction
}

// BuildFollowUpMessage picks the email for a tier and follow-up number. Number 1 is a
// soft check-in, 2 reinforces value, 3 is the direct ask. Any tier other than vip gets
// the qualified sequence and numbers outside 1..3 are clamped.
func BuildFollowUpMessage(job entity.FollowUpJob) FollowUpMessage {
	name := orDefault(job.Name, "there")
	project := orDefault(job.ProjectType, "garden project")
	owner := orDefault(job.OwnerName, "The team")

	n := min(max(job.FollowupNumber, 1), 3)

	if job.Tier == entity.TierVIP {
		switch n {
		case 1:
			return FollowUpMessage{
				Subject:      "Reserved your priority slot",
				CallToAction: CTABooking,
				Text: lines(
					"Hi "+name+",",
					"",
					fmt.Sprintf("I've reserved a priority consultation slot for your %s project. %s reviewed your inquiry personally and is looking forward to discussing your vision.", project, owner),
					"",
					linkOrReply("Your booking link: ", job.BookingLink),
					"",
					"These slots fill up fast, so grab yours while it's available.",
					"",
					owner,
				),
			}
		case 2:
			return FollowUpMessage{
				Subject:      "Your personalised project estimate",
				CallToAction: CTAEstimate,
				Text: lines(
					"Hi "+name+",",
					"",
					fmt.Sprintf("I know you're considering a premium %s project. Want to see real numbers before we talk?", project),
					"",
					linkOrReply("Get your personalised estimate here: ", job.EstimatorLink),
					"",
					"That way our consultation can focus on design details instead of pricing.",
					"",
					owner,
				),
			}
		default:
			return FollowUpMessage{
				Subject:      "Can I ask you something?",
				CallToAction: CTACall,
				Text: lines(
					"Hi "+name+",",
					"",
					owner+" here. I noticed we haven't spoken yet and I'm curious: is something holding you back? Budget? Timeline? Something else?",
					"",
					"I'd rather know honestly so we can figure it out together.",
					"",
					phoneOrReply(job.OwnerPhone),
					"",
					owner,
				),
			}
		}
	}

	switch n {
	case 1:
		return FollowUpMessage{
			Subject:      fmt.Sprintf("Quick question about your %s", project),
			CallToAction: CTAReply,
			Text: lines(
				"Hi "+name+",",
				"",
				fmt.Sprintf("I was just thinking about your %s project. Have you had a chance to consider timing?", project),
				"",
				"Most of our clients see results within 2-3 weeks of booking. Any questions I can answer? Just reply to this email.",
				"",
				owner,
			),
		}
	case 2:
		return FollowUpMessage{
			Subject:      "Thought you'd want to see this",
			CallToAction: CTAPhotos,
			Text: lines(
				"Hi "+name+",",
				"",
				fmt.Sprintf("I just finished a %s project that reminded me of what you described.", project),
				"",
				"Want to see how it turned out? Reply and I'll send over some photos. Does something like this match your vision?",
				"",
				owner,
			),
		}
	default:
		return FollowUpMessage{
			Subject:      "Get your instant estimate here",
			CallToAction: CTAEstimate,
			Text: lines(
				"Hi "+name+",",
				"",
				fmt.Sprintf("Not sure about budget yet? Get an instant estimate for your %s project:", project),
				"",
				linkOrReply("", job.EstimatorLink),
				"",
				"No commitment, it just helps you plan and takes two minutes. Once you've seen the numbers we can talk next steps.",
				"",
				owner,
			),
		}
	}
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func linkOrReply(prefix, link string) string {
	if link = strings.TrimSpace(link); link != "" {
		return prefix + link
	}
	return "Reply to this email and I'll send you the link."
}

func phoneOrReply(phone string) string {
	if phone = strings.TrimSpace(phone); phone != "" {
		return "Here's my direct line: " + phone + "."
	}
	return "Just reply to this email and I'll call you back."
}
