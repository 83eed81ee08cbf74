package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobTypeIsValid(t *testing.T) {
	valid := []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeFreelance, JobTypeInternship}
	for _, jt := range valid {
		assert.Truef(t, jt.IsValid(), "%s 应该是合法的职位类型", jt)
	}

	assert.False(t, JobType("remote").IsValid())
	assert.False(t, JobType("").IsValid())
}

func TestExperienceLevelIsValid(t *testing.T) {
	valid := []ExperienceLevel{ExperienceLevelEntry, ExperienceLevelMid, ExperienceLevelSenior, ExperienceLevelLead}
	for _, el := range valid {
		assert.Truef(t, el.IsValid(), "%s 应该是合法的经验要求", el)
	}

	assert.False(t, ExperienceLevel("junior").IsValid())
	assert.False(t, ExperienceLevel("").IsValid())
}
