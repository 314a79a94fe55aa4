package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EnadeInsights/src/config"
	"EnadeInsights/src/datasource/email"
	"EnadeInsights/src/datasource/file"
	"EnadeInsights/src/pipeline"
	"EnadeInsights/src/storage"

	"github.com/robfig/cron"
)

func main() {
	jsonFolder := flag.String("config", "./config", "配置文件目录")
	once := flag.Bool("once", false, "处理一次输入文件后退出")
	flag.Parse()

	cfg, dcfg, err := config.LoadConfig(*jsonFolder, "config.json", "dataconfig.json")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	if cfg.LogAddr != "" {
		go startWebUI(logger, cfg.LogAddr)
	}

	runner := pipeline.NewRunner(cfg, dcfg, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once || (cfg.Schedule == "" && !cfg.Watch && !cfg.Email.Enabled) {
		_, err := runner.Run(ctx)
		logger.Close()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if cfg.Schedule != "" {
		err := c.AddFunc(cfg.Schedule, func() {
			logger.Info("定时任务触发", "schedule", cfg.Schedule)
			runner.Run(ctx)
		})
		if err != nil {
			logger.Error("创建定时任务失败", "schedule", cfg.Schedule, "error", err)
			logger.Close()
			os.Exit(1)
		}
	}

	if cfg.Email.Enabled {
		if err := scheduleMailCheck(ctx, c, cfg, runner, logger); err != nil {
			logger.Error("创建邮件检查任务失败", "error", err)
			logger.Close()
			os.Exit(1)
		}
	}

	// 启动定时任务
	c.Start()
	defer c.Stop()

	if cfg.Watch {
		monitor, err := file.NewFileMonitor(cfg.DataDir, cfg.InputFile)
		if err != nil {
			logger.Error("创建文件监控失败", "dir", cfg.DataDir, "error", err)
			logger.Close()
			os.Exit(1)
		}
		defer monitor.Close()
		go func() {
			err := monitor.Watch(ctx, func(path string) {
				logger.Info("输入文件已更新", "path", path)
				runner.RunFile(ctx, path)
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("文件监控出错", "error", err)
			}
		}()
	}

	logger.Info("服务已启动，按Ctrl+C退出", "pid", os.Getpid(), "schedule", cfg.Schedule, "watch", cfg.Watch, "email", cfg.Email.Enabled)
	waitForShutdown(cancel, logger, cfg.LogName)
}

// scheduleMailCheck 按检查间隔拉取数据集附件，保存后触发一次处理
func scheduleMailCheck(ctx context.Context, c *cron.Cron, cfg *config.Config, runner *pipeline.Runner, logger *storage.Logger) error {
	emailClient := email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password)
	emailClient.SetLogger(logger)
	handler := email.NewAttachmentHandler(cfg.Email.TargetSubject, cfg.DataDir, cfg.InputFile, logger)

	interval := time.Duration(cfg.Email.CheckInterval)
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	cronSpec := fmt.Sprintf("@every %s", interval)

	return c.AddFunc(cronSpec, func() {
		newEmail, err := email.CheckAndProcessEmails(emailClient, cfg.Email.TargetSubject, logger)
		if err != nil {
			logger.Error("检查处理邮件失败", "error", err)
			return
		}
		saved, err := handler.Handle(newEmail)
		if err != nil {
			logger.Error("保存附件失败", "error", err)
			return
		}
		// 监听模式下由文件监控触发处理
		if len(saved) > 0 && !cfg.Watch {
			runner.RunFile(ctx, saved[0])
		}
	})
}

// logHandler 把订阅到的日志逐行推送给客户端，直到客户端断开
func logHandler(logger *storage.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		logChan := logger.Subscribe()
		defer logger.Unsubscribe(logChan)

		flusher, _ := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		if flusher != nil {
			flusher.Flush()
		}

		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}

// startWebUI 在 addr 上提供 /logs 实时日志
func startWebUI(logger *storage.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/logs", logHandler(logger))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("日志服务退出", "addr", addr, "error", err)
	}
}

// waitForShutdown SIGHUP 重新打开日志文件(配合外部日志切割)，SIGINT/SIGTERM 退出
func waitForShutdown(cancel context.CancelFunc, logger *storage.Logger, logName string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if err := logger.Reopen(logName); err != nil {
				log.Println("reopen log failed:", err)
			} else {
				logger.Info("日志文件已重新打开", "file", logName)
			}
			continue
		}
		logger.Info("Received signal, shutting down...", "signal", sig.String())
		cancel()
		logger.Close()
		return
	}
}
