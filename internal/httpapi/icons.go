package httpapi

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/lootwatch/lootwatchd/internal/store"
	"github.com/lootwatch/lootwatchd/pkg/lrucache"
	"github.com/lootwatch/lootwatchd/pkg/schema"
)

const (
	iconCacheBytes = 32 << 20 // 32MiB, bounding how many distinct icons stay resident
	iconCacheTTL   = 24 * time.Hour
)

// NewIconHandler builds the on-disk-proxy-via-memory-cache handler for
// GET /api/icons/{typeId}: it resolves typeId to the Item's CDN
// IconRef and streams the fetch through httpClient, wrapped in an LRU
// cache so repeat requests (every overlay repaint) never re-hit the
// CDN and never leak its CORS/header quirks to the caller.
func NewIconHandler(s *store.Store, httpClient *http.Client) *lrucache.HttpHandler {
	fetcher := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		raw := path.Base(r.URL.Path)
		typeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}

		item, err := s.Item(schema.TypeId(typeID))
		if err != nil || item.IconRef == "" {
			rw.WriteHeader(http.StatusNotFound)
			return
		}

		resp, err := httpClient.Get(item.IconRef)
		if err != nil {
			rw.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			rw.Header().Set("Content-Type", ct)
		}
		rw.WriteHeader(resp.StatusCode)
		io.Copy(rw, resp.Body)
	})

	return lrucache.NewHttpHandler(iconCacheBytes, iconCacheTTL, fetcher)
}
