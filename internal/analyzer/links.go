package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lotas/tabhost/internal/navigate"
)

// Link is a URL to check, tagged with where it came from.
type Link struct {
	Category string
	Name     string
	URL      string
}

type LinkResult struct {
	Link   Link
	IsDead bool
	Reason string
}

// CheckLinks sends a HEAD request to every web URL, at most ten at a time,
// and reports one result per checked link. Non-web URLs are skipped. A 404
// or 410 answer, or no answer at all, marks the link dead.
func CheckLinks(ctx context.Context, links []Link, results chan<- LinkResult) {
	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	sem := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for _, link := range links {
		if !navigate.IsWebURL(link.URL) {
			continue
		}

		wg.Add(1)
		go func(l Link) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- checkLink(ctx, client, l)
		}(link)
	}

	wg.Wait()
}

func checkLink(ctx context.Context, client *http.Client, l Link) LinkResult {
	result := LinkResult{Link: l}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.URL, nil)
	if err != nil {
		result.IsDead = true
		result.Reason = "invalid URL"
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.IsDead = true
		result.Reason = "unreachable"
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.IsDead = true
		result.Reason = fmt.Sprintf("%d", resp.StatusCode)
	}
	return result
}
