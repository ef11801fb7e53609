// Package metrics exposes the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"
)

// StartMetricsServer 启动Prometheus指标服务器，返回实际监听地址与用于
// 优雅关闭的函数。先建监听再后台 Serve，端口冲突在启动期即可发现。
func StartMetricsServer(addr string, handler http.Handler) (string, func(context.Context) error, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	return ln.Addr().String(), srv.Shutdown, nil
}
