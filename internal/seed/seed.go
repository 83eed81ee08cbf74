package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/repository"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var jobHeaders = []string{"职位名称", "职位描述", "类别", "城市", "类型", "经验要求", "月薪", "技能", "任职要求", "是否远程"}

const demoEmployerEmail = "hr@example.com"

// SeedRealData 从 CSV 中读取真实的职位数据并插入数据库
func SeedRealData(r *repository.Repository) {
	file, err := os.Open("./internal/seed/data/jobs.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	for _, header := range jobHeaders {
		if !slices.Contains(headers, header) {
			slog.Error("没有找到必须的列", "header", header)
			return
		}
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	// 先确保示例雇主存在，职位都挂在它名下
	employer, err := r.GetUserByEmail(demoEmployerEmail)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			passwordHash, err := bcrypt.GenerateFromPassword([]byte("hr@test1234"), bcrypt.DefaultCost)
			if err != nil {
				slog.Error("生成密码哈希失败", "error", err)
				return
			}

			employer = &domain.User{
				Name:         "示例科技人事部",
				Email:        demoEmployerEmail,
				PasswordHash: string(passwordHash),
				Role:         domain.RoleEmployer,
				IsVerified:   true,
			}

			if err := r.CreateUser(employer); err != nil {
				slog.Error("插入示例雇主失败", "error", err)
				return
			}
		default:
			slog.Error("获取示例雇主失败", "error", err)
			return
		}
	}

	// 插入职位
	cnt := 0
	for _, record := range records {
		salary, err := strconv.ParseInt(record["月薪"], 10, 64)
		if err != nil {
			slog.Error("转换月薪失败", "record", record, "error", err)
			continue
		}

		deadline := time.Now().Add(30 * 24 * time.Hour)
		job := &domain.Job{
			Title:           record["职位名称"],
			Description:     record["职位描述"],
			Location:        record["城市"],
			Type:            domain.JobType(record["类型"]),
			Category:        record["类别"],
			Salary:          &salary,
			Requirements:    strings.Split(record["任职要求"], "、"),
			Skills:          strings.Split(record["技能"], "、"),
			Company:         domain.Company{Name: "示例科技有限公司"},
			CreatedBy:       employer.ID,
			Status:          domain.JobStatusOpen,
			Deadline:        &deadline,
			ExperienceLevel: domain.ExperienceLevel(record["经验要求"]),
			Remote:          record["是否远程"] == "是",
		}

		if !job.Type.IsValid() {
			slog.Error("职位类型非法", "type", record["类型"])
			continue
		}
		if !job.ExperienceLevel.IsValid() {
			slog.Error("经验要求非法", "experienceLevel", record["经验要求"])
			continue
		}
		if err := utils.ValidateJobRequirements(job); err != nil {
			slog.Error("职位数据非法", "record", record, "error", err)
			continue
		}

		if err := r.CreateJob(job); err != nil {
			slog.Error("插入职位失败", "error", err)
			continue
		}

		cnt++
	}

	slog.Info("插入数据完成", "count", cnt)
}
