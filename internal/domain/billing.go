package domain

import "time"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPersonal   Plan = "personal"
	PlanEnterprise Plan = "enterprise"
)

// PlanLimit is the monthly image allowance for a plan. -1 means unlimited.
func PlanLimit(p Plan) (int, bool) {
	switch p {
	case PlanFree:
		return 3, true
	case PlanPersonal:
		return 200, true
	case PlanEnterprise:
		return -1, true
	}
	return 0, false
}

type PlanInfo struct {
	ID             Plan   `json:"id"`
	Name           string `json:"name"`
	ImagesPerMonth int    `json:"images_per_month"`
	PriceCents     int    `json:"price_cents"`
}

func Plans() []PlanInfo {
	return []PlanInfo{
		{ID: PlanFree, Name: "Free", ImagesPerMonth: 3, PriceCents: 0},
		{ID: PlanPersonal, Name: "Personal", ImagesPerMonth: 200, PriceCents: 1900},
		{ID: PlanEnterprise, Name: "Enterprise", ImagesPerMonth: -1, PriceCents: 9900},
	}
}

// Subscription is the per-user billing state. ImagesPerMonth mirrors the
// plan limit at the time of the last plan change; Credits are one-off
// top-ups spent after the monthly allowance runs out.
type Subscription struct {
	UserID         string    `json:"user_id"`
	Plan           Plan      `json:"plan"`
	ImagesPerMonth int       `json:"images_per_month"`
	ImagesUsed     int       `json:"images_used"`
	Credits        int       `json:"credits"`
	PeriodStart    time.Time `json:"period_start"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *Subscription) Unlimited() bool {
	return s.ImagesPerMonth < 0
}

// Remaining returns the images still admissible this period, or -1 when
// the plan is unlimited.
func (s *Subscription) Remaining() int {
	if s.Unlimited() {
		return -1
	}
	left := s.ImagesPerMonth + s.Credits - s.ImagesUsed
	if left < 0 {
		return 0
	}
	return left
}

// Admission is the outcome of a quota reservation. Remaining is -1 for
// unlimited plans. LowBalance is set when the reservation drained the
// last admissible image.
type Admission struct {
	Remaining  int  `json:"remaining"`
	LowBalance bool `json:"low_balance"`
}
