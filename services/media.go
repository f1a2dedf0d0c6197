package services

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

var (
	purgeURL string
	once     sync.Once

	httpClient = &http.Client{Timeout: 10 * time.Second}
)

// InitMediaStore reads the external image store's purge endpoint from
// MEDIA_PURGE_URL. When unset, PurgeImages is a no-op.
func InitMediaStore() {
	once.Do(func() {
		purgeURL = os.Getenv("MEDIA_PURGE_URL")
		if purgeURL == "" {
			log.Println("[media] MEDIA_PURGE_URL not set, image purging disabled")
			return
		}
		log.Printf("[media] Image purge endpoint: %s", purgeURL)
	})
}

// PurgeImages asks the image store to delete the given references.
// Failures are logged and swallowed; a dangling image never blocks the
// deletion of the entity that owned it.
func PurgeImages(refs []string) {
	if purgeURL == "" || len(refs) == 0 {
		return
	}

	for _, ref := range refs {
		req, err := http.NewRequest(http.MethodDelete, purgeURL+"?ref="+url.QueryEscape(ref), nil)
		if err != nil {
			log.Printf("[media] Bad purge request for %s: %v", ref, err)
			continue
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			log.Printf("[media] Failed to purge %s: %v", ref, err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("[media] Purge of %s returned %d", ref, resp.StatusCode)
		}
	}
}
