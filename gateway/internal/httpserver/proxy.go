package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/metrics"
)

// rewriteFunc maps the inbound gateway path to the upstream path.
type rewriteFunc func(path string) string

func newProxy(name, target string, rewrite rewriteFunc, logger *slog.Logger) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = baseTransport

	origDirector := p.Director
	p.Director = func(req *http.Request) {
		originalHost := req.Host
		originalProto := "http"
		if req.TLS != nil {
			originalProto = "https"
		} else if xf := req.Header.Get("X-Forwarded-Proto"); xf != "" {
			originalProto = xf
		}

		origDirector(req)

		if rewrite != nil {
			req.URL.Path = rewrite(req.URL.Path)
			req.URL.RawPath = ""
		}

		// Identity headers are gateway-owned: whatever the client sent is
		// dropped before the verified claims are injected.
		req.Header.Del(identity.HeaderUserID)
		req.Header.Del(identity.HeaderUserEmail)
		req.Header.Del(identity.HeaderUserRole)
		if id, ok := identity.FromContext(req.Context()); ok {
			req.Header.Set(identity.HeaderUserID, strconv.FormatUint(uint64(id.UserID), 10))
			req.Header.Set(identity.HeaderUserEmail, id.Email)
			req.Header.Set(identity.HeaderUserRole, id.Role)
		}

		if req.Header.Get("X-Forwarded-Proto") == "" {
			req.Header.Set("X-Forwarded-Proto", originalProto)
		}
		if req.Header.Get("X-Forwarded-Host") == "" && originalHost != "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream unreachable", "route", name, "target", target, "error", err)
		metrics.GatewayUpstreamErrors.WithLabelValues(name).Inc()
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"message":"upstream unavailable"}`))
	}

	p.FlushInterval = 100 * time.Millisecond

	return func(c echo.Context) error {
		p.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}
