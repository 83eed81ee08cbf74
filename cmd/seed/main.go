package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/job-board/backend/internal/config"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/repository"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/seed"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var jobID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机职位, 3: 插入随机申请, 4: 插入真实职位数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&jobID, "job-id", 0, "随机插入申请的职位 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的职位数量")
		} else {
			// 先获取所有可以发布职位的用户
			users, err := repo.GetAllUsers()
			if err != nil {
				slog.Error("无法获取所有用户", slog.String("error", err.Error()))
				return
			}

			employers := []*domain.User{}
			for _, user := range users {
				if user.Role == domain.RoleEmployer || user.Role == domain.RoleAdmin {
					employers = append(employers, user)
				}
			}
			if len(employers) == 0 {
				slog.Error("数据库中没有雇主或管理员，无法插入职位")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				// 随机选一个雇主
				employer := employers[rand.Intn(len(employers))]

				job := utils.GenerateRandomJob(employer.ID)
				if err := repo.CreateJob(job); err != nil {
					slog.Error("无法插入职位", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入职位成功", slog.Int("count", n-cnt))
		}
	case 3:
		if jobID <= 0 {
			slog.Error("请输入合法的职位 ID")
			return
		}

		// 获取对应的职位
		job, err := repo.GetJobByID(jobID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				slog.Error("指定的职位不存在", slog.Int64("job_id", jobID))
			default:
				slog.Error("无法获取职位", slog.String("error", err.Error()))
			}
			return
		}

		// 获取所有用户
		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取所有用户", slog.String("error", err.Error()))
			return
		}

		// 为每一个求职者都生成一条申请并插入
		cnt := 0
		for _, user := range users {
			if user.Role != domain.RoleUser {
				continue
			}

			application := utils.GenerateRandomApplication(job.ID, user.ID)
			if err := repo.CreateApplication(application); err != nil {
				slog.Error("无法插入申请", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入申请成功", slog.Int("count", cnt))
	case 4:
		seed.SeedRealData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
