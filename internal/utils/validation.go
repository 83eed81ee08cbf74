package utils

import (
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
)

// 职位的截止时间在创建时必须是一个将来的时间
func ValidateJobDeadline(job *domain.Job) error {
	if job.Deadline != nil && !job.Deadline.After(time.Now()) {
		return errors.New("职位的申请截止时间必须晚于当前时间")
	}
	return nil
}

func ValidateJobRequirements(job *domain.Job) error {
	if len(job.Requirements) == 0 {
		return errors.New("职位必须至少有一条任职要求")
	}
	if len(job.Skills) == 0 {
		return errors.New("职位必须至少要求一项技能")
	}
	return nil
}
