package domain

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusReviewing   ApplicationStatus = "reviewing"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusInterview   ApplicationStatus = "interview"
	ApplicationStatusAccepted    ApplicationStatus = "accepted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

// 申请的状态机：pending → reviewing → shortlisted → interview → accepted
// rejected 可以从任何非终态到达，accepted 只能从 interview 到达
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:     {ApplicationStatusReviewing, ApplicationStatusRejected},
	ApplicationStatusReviewing:   {ApplicationStatusShortlisted, ApplicationStatusRejected},
	ApplicationStatusShortlisted: {ApplicationStatusInterview, ApplicationStatusRejected},
	ApplicationStatusInterview:   {ApplicationStatusAccepted, ApplicationStatusRejected},
	ApplicationStatusAccepted:    {},
	ApplicationStatusRejected:    {},
}

func (s ApplicationStatus) IsValid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

func (s ApplicationStatus) IsTerminal() bool {
	next, ok := applicationTransitions[s]
	return ok && len(next) == 0
}

func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	for _, next := range applicationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

type Application struct {
	ID            int64             `json:"id"`
	JobID         int64             `json:"jobId"`
	UserID        int64             `json:"userId"`
	Status        ApplicationStatus `json:"status"`
	CoverLetter   *string           `json:"coverLetter,omitempty"`
	Resume        string            `json:"resume"`
	Notes         *string           `json:"notes,omitempty"`
	InterviewDate *time.Time        `json:"interviewDate,omitempty"`
	Feedback      *string           `json:"feedback,omitempty"`
	AppliedAt     time.Time         `json:"appliedAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Version       int32             `json:"-"`

	// 仅在列表接口中填充
	Job       *JobSummary  `json:"job,omitempty"`
	Applicant *UserSummary `json:"applicant,omitempty"`
}

// 申请列表接口返回的职位摘要，避免把整个职位都带出来
type JobSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	Location    string    `json:"location"`
	Type        JobType   `json:"type"`
	Status      JobStatus `json:"status"`
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// 职位详情接口返回的申请摘要
type ApplicationSummary struct {
	ID        int64             `json:"id"`
	Status    ApplicationStatus `json:"status"`
	AppliedAt time.Time         `json:"appliedAt"`
	Applicant *UserSummary      `json:"applicant,omitempty"`
}

// 申请列表的查询条件
type ApplicationFilter struct {
	Status string
	SortBy string
	Page   int
	Limit  int
}
