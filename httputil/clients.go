package httputil

import (
	"net/http"
	"net/url"
	"time"

	"getmyhouse/config"
)

type Clients struct {
	Feed *http.Client // provider endpoints, optionally proxied
	API  *http.Client // direct, for export uploads and health calls
}

func NewClients(proxyCfg *config.ProxyConfig, timeout time.Duration) *Clients {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	feed := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	if proxyCfg != nil && proxyCfg.URL != "" {
		if proxyURL, err := url.Parse(proxyCfg.URL); err == nil {
			feed.Transport = &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			}
		}
	}

	return &Clients{
		Feed: feed,
		API:  &http.Client{Timeout: 30 * time.Second},
	}
}
