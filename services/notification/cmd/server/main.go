package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/logger"
	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/pkg/messaging"
	"github.com/shivam7053/raga-vachika/services/notification/internal/config"
	"github.com/shivam7053/raga-vachika/services/notification/internal/worker"
)

func main() {
	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// 로거 초기화
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("로거 초기화 실패: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("알림 서비스를 시작합니다...", zap.String("environment", cfg.Service.Environment))

	// Redis 연결
	redisClient, err := messaging.NewRedisClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("Redis 연결 실패", zap.Error(err))
	}
	defer redisClient.Close()

	mailWorker := worker.NewMailWorker(
		redisClient,
		mail.NewSMTPClient(cfg.Email, zapLogger),
		worker.Config{
			Channel:     cfg.Worker.Channel,
			Pacing:      cfg.Worker.Pacing,
			SendTimeout: cfg.Worker.SendTimeout,
		},
		zapLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := mailWorker.Run(ctx); err != nil {
			zapLogger.Error("메일 워커 종료", zap.Error(err))
		}
	}()

	// Echo 서버 생성
	e := echo.New()
	e.HideBanner = true
	logger.WithEchoLogger(e, zapLogger)
	e.Use(logger.NewEchoRequestLogger(zapLogger))
	e.Use(middleware.Recover())

	// 라우터 설정
	e.GET("/health", func(c echo.Context) error {
		status := http.StatusOK
		state := "ok"
		if !mailWorker.Running() {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		return c.JSON(status, echo.Map{
			"status":  state,
			"service": cfg.Service.Name,
			"mail":    mailWorker.Stats(),
		})
	})

	// 서버 시작
	go func() {
		if err := e.Start(cfg.HTTP.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("서버 시작 실패", zap.Error(err))
		}
	}()

	// 그레이스풀 종료를 위한 시그널 처리
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("서버를 종료합니다...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("서버 종료 중 오류 발생", zap.Error(err))
	}

	// 메일 워커 종료 대기
	cancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		zapLogger.Warn("메일 워커 종료 대기 시간 초과")
	}

	zapLogger.Info("서버가 정상적으로 종료되었습니다")
}
