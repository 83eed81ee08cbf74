package domain

import (
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeFreelance  JobType = "freelance"
	JobTypeInternship JobType = "internship"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeFreelance, JobTypeInternship:
		return true
	default:
		return false
	}
}

type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

type ExperienceLevel string

const (
	ExperienceLevelEntry  ExperienceLevel = "entry"
	ExperienceLevelMid    ExperienceLevel = "mid"
	ExperienceLevelSenior ExperienceLevel = "senior"
	ExperienceLevelLead   ExperienceLevel = "lead"
)

func (l ExperienceLevel) IsValid() bool {
	switch l {
	case ExperienceLevelEntry, ExperienceLevelMid, ExperienceLevelSenior, ExperienceLevelLead:
		return true
	default:
		return false
	}
}

type Company struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Website     *string `json:"website,omitempty"`
}

type Job struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	Type            JobType         `json:"type"`
	Category        string          `json:"category"`
	Salary          *int64          `json:"salary,omitempty"`
	Requirements    []string        `json:"requirements"`
	Skills          []string        `json:"skills"`
	Company         Company         `json:"company"`
	CreatedBy       int64           `json:"createdBy"`
	Status          JobStatus       `json:"status"`
	Deadline        *time.Time      `json:"deadline,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	Remote          bool            `json:"remote"`
	CreatedAt       time.Time       `json:"createdAt"`
	Version         int32           `json:"-"`

	// 仅在详情接口中填充
	Creator      *User                 `json:"creator,omitempty"`
	Applications []*ApplicationSummary `json:"applications,omitempty"`
}

// 职位列表的查询条件，由 handler 从 query string 中解析后传给 repository
type JobFilter struct {
	Search          string
	Location        string
	Type            string
	Category        string
	ExperienceLevel string
	Remote          *bool
	SalaryGTE       *int64
	SalaryLTE       *int64
	Status          string
	SortBy          string
	Page            int
	Limit           int
}

// 按照类别分组的职位薪资统计
type JobCategoryStats struct {
	Category  string   `json:"category"`
	Count     int64    `json:"count"`
	AvgSalary *float64 `json:"avgSalary"`
	MinSalary *int64   `json:"minSalary"`
	MaxSalary *int64   `json:"maxSalary"`
}

type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type DashboardStats struct {
	TotalJobs         int64         `json:"totalJobs"`
	TotalApplications int64         `json:"totalApplications"`
	JobsByCategory    []*GroupCount `json:"jobsByCategory"`
	JobsByType        []*GroupCount `json:"jobsByType"`
	RecentJobs        []*Job        `json:"recentJobs"`
}
