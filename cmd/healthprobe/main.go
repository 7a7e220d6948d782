// healthprobe is a lean sidecar that polls a threadkit server's /readyz and
// re-exposes the result on its own endpoint, so load balancers can probe a
// cheap port without touching the main server stack.
package main

import (
	"flag"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address for the probe endpoint")
	target := flag.String("target", "http://127.0.0.1:8080/readyz", "threadkit readiness URL to poll")
	interval := flag.Duration("interval", 5*time.Second, "poll interval")
	flag.Parse()

	var healthy atomic.Bool

	go func() {
		client := &fasthttp.Client{
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
		for {
			status, _, err := client.Get(nil, *target)
			healthy.Store(err == nil && status == fasthttp.StatusOK)
			time.Sleep(*interval)
		}
	}()

	h := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/health", "/healthz":
			ctx.Response.Header.Set("Content-Type", "application/json")
			if healthy.Load() {
				ctx.SetStatusCode(fasthttp.StatusOK)
				_, _ = ctx.WriteString(`{"status":"ok"}`)
			} else {
				ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
				_, _ = ctx.WriteString(`{"status":"unreachable"}`)
			}
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	fmt.Printf("healthprobe listening on %s, polling %s\n", *addr, *target)
	srv := &fasthttp.Server{
		Handler:            h,
		Name:               "threadkit-healthprobe",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("healthprobe exit: %v\n", err)
	}
}
