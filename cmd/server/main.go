package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tienda_srv/internal/config"
	"tienda_srv/internal/database"
	"tienda_srv/internal/report"
	"tienda_srv/internal/server"
	"tienda_srv/internal/service"
	"tienda_srv/internal/storage"
	mongostore "tienda_srv/internal/store/mongo"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		// Поставщики зависимостей
		fx.Provide(
			provideConfig,
			provideLogger,
			provideMongoClient,
			provideMongoDatabase,
			provideOrderPager,
			provideNameResolver,
			provideDatabase,
			provideStorage,
			provideExportService,
			server.NewServer,
		),

		// Хуки жизненного цикла
		fx.Invoke(registerLifecycleHooks),
	)

	// Запуск приложения с остановкой
	runWithGracefulShutdown(app)
}

// provideConfig загружает и предоставляет конфигурацию приложения
func provideConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// provideLogger создает и настраивает логгер на основе конфигурации
func provideLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()

	// Устанавливаем уровень логирования
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithError(err).Warn("Неверный уровень логирования, используется info")
	}
	logger.SetLevel(level)

	// Устанавливаем формат вывода
	switch cfg.Logging.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	logger.WithField("config", cfg.String()).Info("Запуск сервиса отчетов магазина")
	return logger
}

// provideMongoClient подключается к документному хранилищу заказов
func provideMongoClient(cfg config.Config, logger *logrus.Logger) (*mongo.Client, error) {
	return mongostore.Connect(cfg.Mongo, logger)
}

// provideMongoDatabase выбирает рабочую базу документного хранилища
func provideMongoDatabase(client *mongo.Client, cfg config.Config) *mongo.Database {
	return mongostore.Database(client, cfg.Mongo)
}

// provideOrderPager создает источник страниц заказов
func provideOrderPager(db *mongo.Database, logger *logrus.Logger) report.OrderPager {
	return mongostore.NewOrderStore(db, logger)
}

// provideNameResolver создает резолвер имен пользователей
func provideNameResolver(db *mongo.Database, logger *logrus.Logger) *report.NameResolver {
	return report.NewNameResolver(mongostore.NewUserStore(db), logger)
}

// provideDatabase подключается к БД истории выгрузок и применяет миграции
func provideDatabase(cfg config.Config) (*gorm.DB, error) {
	db, err := database.NewDatabase(database.Config{
		DSN:   cfg.DB.DSN,
		Debug: cfg.Server.Debug,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// provideStorage создает хранилище файлов выгрузок
func provideStorage(cfg config.Config, logger *logrus.Logger) (storage.Storage, error) {
	return storage.New(cfg, logger)
}

// provideExportService собирает сервис выгрузок
func provideExportService(db *gorm.DB, files storage.Storage, logger *logrus.Logger) service.ExportService {
	return service.NewExportService(service.NewGormExportRepository(db, logger), files, logger)
}

// registerLifecycleHooks настраивает хуки жизненного цикла приложения
func registerLifecycleHooks(
	srv *server.Server,
	client *mongo.Client,
	cfg config.Config,
	logger *logrus.Logger,
	lc fx.Lifecycle,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Запуск HTTP сервера")
			go func() {
				if err := srv.Start(cfg.Server.Address); err != nil {
					logger.WithError(err).Error("Не удалось запустить HTTP сервер")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Завершение работы HTTP сервера")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return client.Disconnect(ctx)
		},
	})
}

// runWithGracefulShutdown обрабатывает жизненный цикл приложения с обработкой сигналов
func runWithGracefulShutdown(app *fx.App) {
	// Создаем контексты
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем приложение с таймаутом
	startCtx, startCancel := context.WithTimeout(ctx, 15*time.Second)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		logrus.WithError(err).Fatal("Не удалось запустить приложение")
	}

	// Ожидаем сигнал завершения
	<-quit
	logrus.Info("Получен сигнал завершения работы")

	// Грациозное завершение с таймаутом
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		logrus.WithError(err).Error("Ошибка при завершении работы")
		os.Exit(1)
	}

	logrus.Info("Сервис отчетов магазина остановлен корректно")
}
