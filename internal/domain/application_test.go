package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{"pending 到 reviewing", ApplicationStatusPending, ApplicationStatusReviewing, true},
		{"pending 到 rejected", ApplicationStatusPending, ApplicationStatusRejected, true},
		{"pending 不能跳到 shortlisted", ApplicationStatusPending, ApplicationStatusShortlisted, false},
		{"pending 不能直接 accepted", ApplicationStatusPending, ApplicationStatusAccepted, false},
		{"reviewing 到 shortlisted", ApplicationStatusReviewing, ApplicationStatusShortlisted, true},
		{"reviewing 不能回到 pending", ApplicationStatusReviewing, ApplicationStatusPending, false},
		{"shortlisted 到 interview", ApplicationStatusShortlisted, ApplicationStatusInterview, true},
		{"interview 到 accepted", ApplicationStatusInterview, ApplicationStatusAccepted, true},
		{"interview 到 rejected", ApplicationStatusInterview, ApplicationStatusRejected, true},
		{"accepted 是终态", ApplicationStatusAccepted, ApplicationStatusRejected, false},
		{"rejected 是终态", ApplicationStatusRejected, ApplicationStatusPending, false},
		{"不能转移到自身", ApplicationStatusReviewing, ApplicationStatusReviewing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// rejected 必须可以从任何非终态到达，accepted 只能从 interview 到达
func TestApplicationStatusTransitionInvariants(t *testing.T) {
	all := []ApplicationStatus{
		ApplicationStatusPending,
		ApplicationStatusReviewing,
		ApplicationStatusShortlisted,
		ApplicationStatusInterview,
		ApplicationStatusAccepted,
		ApplicationStatusRejected,
	}

	for _, s := range all {
		if s.IsTerminal() {
			for _, target := range all {
				assert.Falsef(t, s.CanTransitionTo(target), "终态 %s 不应该能转移到 %s", s, target)
			}
			continue
		}

		assert.Truef(t, s.CanTransitionTo(ApplicationStatusRejected), "非终态 %s 应该可以被拒绝", s)

		if s != ApplicationStatusInterview {
			assert.Falsef(t, s.CanTransitionTo(ApplicationStatusAccepted), "%s 不应该能直接被录用", s)
		}
	}
}

func TestApplicationStatusIsValid(t *testing.T) {
	assert.True(t, ApplicationStatusPending.IsValid())
	assert.True(t, ApplicationStatusRejected.IsValid())
	assert.False(t, ApplicationStatus("withdrawn").IsValid())
	assert.False(t, ApplicationStatus("").IsValid())
}

func TestApplicationStatusIsTerminal(t *testing.T) {
	assert.False(t, ApplicationStatusPending.IsTerminal())
	assert.False(t, ApplicationStatusInterview.IsTerminal())
	assert.True(t, ApplicationStatusAccepted.IsTerminal())
	assert.True(t, ApplicationStatusRejected.IsTerminal())
	assert.False(t, ApplicationStatus("unknown").IsTerminal())
}
