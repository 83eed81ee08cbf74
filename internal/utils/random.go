package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// 用姓名的拼音加上随机数字生成邮箱的本地部分
func GenerateEmailLocalPartFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	localPart := ""

	for _, p := range pinyinArray {
		localPart += p
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		localPart += string(digits[rand.Intn(len(digits))])
	}

	return localPart
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var alphanumerics = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func GenerateRandomID(length int) string {
	random_id := make([]rune, length)
	for i := range random_id {
		random_id[i] = alphanumerics[rand.Intn(len(alphanumerics))]
	}
	return string(random_id)
}

var seedRoles = []domain.Role{
	domain.RoleUser,
	domain.RoleUser,
	domain.RoleEmployer,
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomChineseName()
	localPart := GenerateEmailLocalPartFromChineseName(name)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        localPart + "@" + emailDomainName,
		PasswordHash: string(passwordHash),
		Role:         seedRoles[rand.Intn(len(seedRoles))],
		IsVerified:   true,
	}

	return user, nil
}

var jobCategories = []string{"后端开发", "前端开发", "运维", "产品", "设计", "测试"}
var jobLocations = []string{"广州", "深圳", "北京", "上海", "杭州", "成都"}
var jobTypes = []domain.JobType{
	domain.JobTypeFullTime,
	domain.JobTypePartTime,
	domain.JobTypeContract,
	domain.JobTypeFreelance,
	domain.JobTypeInternship,
}
var experienceLevels = []domain.ExperienceLevel{
	domain.ExperienceLevelEntry,
	domain.ExperienceLevelMid,
	domain.ExperienceLevelSenior,
	domain.ExperienceLevelLead,
}
var jobSkills = []string{"Go", "TypeScript", "PostgreSQL", "Redis", "RabbitMQ", "Docker", "React", "Kubernetes"}

func randomSubset(items []string) []string {
	n := rand.Intn(len(items)-1) + 1
	shuffled := append([]string{}, items...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func GenerateRandomJob(createdBy int64) *domain.Job {
	category := jobCategories[rand.Intn(len(jobCategories))]
	salary := int64(rand.Intn(30)+10) * 1000
	deadline := time.Now().Add(time.Duration(rand.Intn(60)+1) * 24 * time.Hour)

	return &domain.Job{
		Title:           fmt.Sprintf("%s工程师 %s", category, GenerateRandomID(4)),
		Description:     "职位描述 " + GenerateRandomID(20),
		Location:        jobLocations[rand.Intn(len(jobLocations))],
		Type:            jobTypes[rand.Intn(len(jobTypes))],
		Category:        category,
		Salary:          &salary,
		Requirements:    []string{"本科及以上学历", "两年以上相关经验"},
		Skills:          randomSubset(jobSkills),
		Company:         domain.Company{Name: "示例科技有限公司"},
		CreatedBy:       createdBy,
		Status:          domain.JobStatusOpen,
		Deadline:        &deadline,
		ExperienceLevel: experienceLevels[rand.Intn(len(experienceLevels))],
		Remote:          rand.Intn(2) == 0,
	}
}

func GenerateRandomApplication(jobID int64, userID int64) *domain.Application {
	coverLetter := "求职信 " + GenerateRandomID(16)

	return &domain.Application{
		JobID:       jobID,
		UserID:      userID,
		Status:      domain.ApplicationStatusPending,
		CoverLetter: &coverLetter,
		Resume:      fmt.Sprintf("https://example.com/resumes/%s.pdf", GenerateRandomID(8)),
	}
}
