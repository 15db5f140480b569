package server

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/middleware"
)

// RouterDeps はルーター構築に必要な依存です。
type RouterDeps struct {
	Employees      *handler.EmployeeHandler
	Login          *handler.LoginHandler
	Tokens         middleware.TokenParser
	Logger         logrus.FieldLogger
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	// ImageDir が空でなければ ImagePath 以下で静的配信します。
	ImageDir  string
	ImagePath string
}

// NewRouter は API 全体のハンドラーを組み立てます。
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(deps.Logger), middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	deps.Login.Register(r)

	employees := r.PathPrefix("/employee").Subrouter()
	employees.Use(middleware.Bearer(deps.Tokens, deps.Logger))
	deps.Employees.Register(employees)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if deps.ImageDir != "" && deps.ImagePath != "" {
		files := http.StripPrefix(deps.ImagePath, http.FileServer(noListingFS{http.Dir(deps.ImageDir)}))
		r.PathPrefix(deps.ImagePath).Handler(files).Methods(http.MethodGet, http.MethodHead)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{handler.TotalCountHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(r)
}

// noListingFS はディレクトリの一覧表示を無効にします。
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
