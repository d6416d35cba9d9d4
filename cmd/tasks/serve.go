package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	handlers "github.com/sun1tar/crm-tasks/internal/http"
	customMiddleware "github.com/sun1tar/crm-tasks/internal/middleware"
	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/internal/service"
	"github.com/sun1tar/crm-tasks/internal/session"
	"github.com/sun1tar/crm-tasks/internal/settings"
	"github.com/sun1tar/crm-tasks/internal/view"
	"github.com/sun1tar/crm-tasks/shared/middleware"
)

type serveOptions struct {
	port      string
	settings  string
	bootstrap string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port, overrides TASKS_PORT")
	cmd.Flags().StringVar(&opts.settings, "settings", "", "settings YAML file, overrides SETTINGS_PATH")
	cmd.Flags().StringVar(&opts.bootstrap, "bootstrap-user", "", "username:password to create on start if missing (useful with DB_DRIVER=memory)")
	return cmd
}

func serve(ctx context.Context, opts serveOptions) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.store.Close()
	log := rt.log

	if opts.port != "" {
		rt.cfg.TasksPort = opts.port
	}
	if opts.settings != "" {
		rt.cfg.SettingsPath = opts.settings
	}
	if opts.bootstrap != "" {
		if err := bootstrapUser(ctx, rt.store, opts.bootstrap); err != nil {
			return err
		}
	}

	st, err := settings.Load(rt.cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	renderer, err := view.NewHTML(st.Printer(), st.CalendarWithTime())
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	locale := st.Locale().String()

	// Инициализация сервиса и хендлеров
	taskService := service.NewTaskService(rt.store, st)
	taskHandler := handlers.NewTaskHandler(taskService, st, rt.store, renderer, view.XMLSerializer{},
		handlers.Config{Locale: locale, Statuses: st.TaskStatuses()}, log)

	sessions := session.NewStore(rt.cfg.SessionTTL)
	sessionHandler := session.NewHandler(sessions, rt.store, renderer, log, locale, rt.cfg.SecureCookies)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := customMiddleware.NewMetrics(reg)

	// Настройка роутера
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /login", sessionHandler.LoginForm)
	mux.HandleFunc("POST /login", sessionHandler.Login)
	mux.HandleFunc("POST /logout", sessionHandler.Logout)
	mux.Handle("GET /{$}", http.RedirectHandler("/tasks", http.StatusFound))
	taskHandler.RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return session.RequireUser(sessions, rt.store, log, next)
	})

	// Цепочка middleware (снаружи внутрь: request-id, логирование, метрики, заголовки, лимит тела, _method, CSRF)
	var handler http.Handler = mux
	handler = customMiddleware.CSRFMiddleware("/login")(handler)
	handler = customMiddleware.MethodOverrideMiddleware(handler)
	handler = customMiddleware.BodyLimitMiddleware(customMiddleware.MaxBodyBytes)(handler)
	handler = customMiddleware.SecurityHeadersMiddleware(rt.cfg.SecureCookies)(handler)
	handler = metrics.Middleware(handler)
	handler = middleware.LoggingMiddleware(log)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:    ":" + rt.cfg.TasksPort,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", rt.cfg.TasksPort).Info("tasks service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// bootstrapUser создаёт пользователя из "username:password", если такого ещё нет
func bootstrapUser(ctx context.Context, users repository.UserStore, spec string) error {
	username, password, ok := strings.Cut(spec, ":")
	if !ok {
		return errors.New("--bootstrap-user must look like username:password")
	}
	if _, err := users.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("look up bootstrap user: %w", err)
	}
	_, err := addUser(ctx, users, userOptions{username: username, password: password})
	return err
}
